package main

import (
	"context"
	"crm/config"
	"crm/dep"
	"crm/handler"
	"crm/job/apply_receipts"
	"crm/pkg/logutil"
	"crm/pkg/service"
	"crm/repo"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		opt = config.NewOptions()
		ctx = logutil.InitZeroLog(context.Background(), "DEBUG")
	)

	cfg := config.NewConfig()
	if err := cfg.Load(ctx, opt.ConfigPath); err != nil {
		log.Ctx(ctx).Error().Msgf("load config failed: %v", err)
		os.Exit(1)
	}

	// base repo
	baseRepo, err := repo.NewBaseRepo(ctx, cfg.MetadataDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init base repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if baseRepo != nil {
			if err := baseRepo.Close(ctx); err != nil {
				log.Ctx(ctx).Error().Msgf("close base repo failed, err: %v", err)
				return
			}
		}
	}()

	var (
		customerRepo = repo.NewCustomerRepo(ctx, baseRepo)
		campaignRepo = repo.NewCampaignRepo(ctx, baseRepo)
		commLogRepo  = repo.NewCommLogRepo(ctx, baseRepo)

		deliveryVendor  = dep.NewSimulatedVendor(ctx, cfg.Vendor)
		audienceHandler = handler.NewAudienceHandler(customerRepo)
		campaignHandler = handler.NewCampaignHandler(campaignRepo, commLogRepo, customerRepo,
			audienceHandler, deliveryVendor, nil)
	)

	jobs := map[string]service.Job{
		"apply-receipts": apply_receipts.New(cfg, campaignHandler),
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <job_name>")
		os.Exit(1)
	}

	jobName := os.Args[1]
	job, exists := jobs[jobName]
	if !exists {
		log.Ctx(ctx).Error().Msgf("job %s not found", jobName)
		os.Exit(1)
	}

	if err := job.Init(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("init job err: %v", err)
		os.Exit(1)
	}

	if err := job.Run(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("run job err: %v", err)
		os.Exit(1)
	}

	if err := job.CleanUp(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("cleanup job err: %v", err)
		os.Exit(1)
	}

	log.Ctx(ctx).Info().Msg("job executed successfully")
	os.Exit(0)
}
