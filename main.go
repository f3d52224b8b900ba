package main

import (
	"context"
	"crm/config"
	"crm/dep"
	"crm/handler"
	"crm/middleware"
	"crm/pkg/logutil"
	"crm/pkg/mq"
	"crm/pkg/router"
	"crm/pkg/service"
	"crm/repo"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type server struct {
	ctx context.Context
	opt *config.Option
	cfg *config.Config

	baseRepo  repo.BaseRepo
	baseCache repo.BaseCache

	userRepo     repo.UserRepo
	sessionRepo  repo.SessionRepo
	customerRepo repo.CustomerRepo
	orderRepo    repo.OrderRepo
	campaignRepo repo.CampaignRepo
	commLogRepo  repo.CommLogRepo

	deliveryVendor    dep.DeliveryVendor
	completionService dep.CompletionService
	producer          *mq.Producer

	// api handlers
	userHandler     handler.UserHandler
	importHandler   handler.ImportHandler
	audienceHandler handler.AudienceHandler
	campaignHandler handler.CampaignHandler
	statsHandler    handler.StatsHandler
	assistHandler   handler.AssistHandler
}

func main() {
	rand.Seed(time.Now().UTC().UnixNano())

	s := new(server)
	if err := service.Run(s); err != nil {
		log.Fatal().Msg(err.Error())
	}
}

func (s *server) Init() error {
	_ = godotenv.Load()

	opt := config.NewOptions()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		opt.LogLevel = logLevel
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		opt.ConfigPath = configPath
	}

	if serverPort := os.Getenv("PORT"); serverPort != "" {
		if port, err := strconv.Atoi(serverPort); err == nil {
			opt.Port = port
		}
	}

	s.opt = opt

	return nil
}

func (s *server) Start() error {
	var err error

	// ====== init logger ===== //

	s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel)

	// ===== init config ===== //

	s.cfg = config.NewConfig()
	if err = s.cfg.Load(s.ctx, s.opt.ConfigPath); err != nil {
		log.Ctx(s.ctx).Error().Msgf("load config failed, err: %v", err)
		return err
	}

	if apiKey := os.Getenv("COMPLETION_API_KEY"); apiKey != "" {
		s.cfg.Completion.APIKey = apiKey
	}

	// ===== init repos ===== //

	s.baseRepo, err = repo.NewBaseRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init base repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.baseRepo != nil {
			if err := s.baseRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
				return
			}
		}
	}()

	s.baseCache = repo.NewBaseCache(s.ctx)

	s.userRepo = repo.NewUserRepo(s.ctx, s.baseRepo)
	s.sessionRepo = repo.NewSessionRepo(s.ctx, s.baseRepo, s.baseCache)
	s.customerRepo = repo.NewCustomerRepo(s.ctx, s.baseRepo)
	s.orderRepo = repo.NewOrderRepo(s.ctx, s.baseRepo)
	s.campaignRepo = repo.NewCampaignRepo(s.ctx, s.baseRepo)
	s.commLogRepo = repo.NewCommLogRepo(s.ctx, s.baseRepo)

	// ===== init deps ===== //

	s.deliveryVendor = dep.NewSimulatedVendor(s.ctx, s.cfg.Vendor)
	s.completionService = dep.NewCompletionService(s.ctx, s.cfg.Completion)

	if len(s.cfg.Kafka.Brokers) > 0 {
		s.producer, err = mq.NewProducer(s.ctx, mq.ProducerConfig{
			Brokers: s.cfg.Kafka.Brokers,
			Topics: map[uint32]string{
				uint32(mq.PayloadCampaignDispatched): s.cfg.Kafka.DispatchTopic,
			},
		})
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init producer failed, err: %v", err)
			return err
		}
	}

	// ===== init handlers ===== //

	s.userHandler = handler.NewUserHandler(s.userRepo, s.sessionRepo)
	s.importHandler = handler.NewImportHandler(s.customerRepo, s.orderRepo)
	s.audienceHandler = handler.NewAudienceHandler(s.customerRepo)
	s.campaignHandler = handler.NewCampaignHandler(s.campaignRepo, s.commLogRepo, s.customerRepo,
		s.audienceHandler, s.deliveryVendor, s.producer)
	s.statsHandler = handler.NewStatsHandler(s.customerRepo, s.orderRepo, s.campaignRepo, s.commLogRepo)
	s.assistHandler = handler.NewAssistHandler(s.completionService)

	// ===== start server ===== //

	go func() {
		addr := fmt.Sprintf(":%d", s.opt.Port)

		log.Info().Msgf("starting HTTP server at %s", addr)

		c := cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Content-Type", "X-Session-ID"},
			AllowCredentials: true,
		})

		httpServer := &http.Server{
			BaseContext: func(_ net.Listener) context.Context {
				return s.ctx
			},
			Addr:    addr,
			Handler: middleware.Log(c.Handler(s.registerRoutes())),
		}
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fail to start HTTP server, err: %v", err)
		}
	}()

	return nil
}

func (s *server) Stop() error {
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close producer failed, err: %v", err)
			return err
		}
	}

	if s.completionService != nil {
		if err := s.completionService.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close completion service failed, err: %v", err)
			return err
		}
	}

	if s.deliveryVendor != nil {
		if err := s.deliveryVendor.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close delivery vendor failed, err: %v", err)
			return err
		}
	}

	if s.baseCache != nil {
		if err := s.baseCache.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base cache failed, err: %v", err)
			return err
		}
	}

	if s.baseRepo != nil {
		if err := s.baseRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
			return err
		}
	}

	return nil
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}

func (s *server) registerRoutes() http.Handler {
	r := &router.HttpRouter{
		Router: mux.NewRouter(),
	}

	sessionMiddleware := router.NewSessionMiddleware(s.userRepo, s.sessionRepo)
	authed := []router.Middleware{sessionMiddleware}

	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathHealthCheck,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(HealthCheckRequest),
			Res: new(HealthCheckResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return nil
			},
		},
	})

	// sign_up
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathSignUp,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.SignUpRequest),
			Res: new(handler.SignUpResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.SignUp(ctx, req.(*handler.SignUpRequest), res.(*handler.SignUpResponse))
			},
		},
	})

	// log_in
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathLogIn,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.LogInRequest),
			Res: new(handler.LogInResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.LogIn(ctx, req.(*handler.LogInRequest), res.(*handler.LogInResponse))
			},
		},
	})

	// log_out
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathLogOut,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.LogOutRequest),
			Res: new(handler.LogOutResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.LogOut(ctx, req.(*handler.LogOutRequest), res.(*handler.LogOutResponse))
			},
		},
	})

	// upload_customers
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathUploadCustomers,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.UploadCustomersRequest),
			Res: new(handler.UploadCustomersResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.importHandler.UploadCustomers(ctx, req.(*handler.UploadCustomersRequest), res.(*handler.UploadCustomersResponse))
			},
		},
	})

	// upload_orders
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathUploadOrders,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.UploadOrdersRequest),
			Res: new(handler.UploadOrdersResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.importHandler.UploadOrders(ctx, req.(*handler.UploadOrdersRequest), res.(*handler.UploadOrdersResponse))
			},
		},
	})

	// preview_audience
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathPreviewAudience,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.PreviewAudienceRequest),
			Res: new(handler.PreviewAudienceResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.PreviewAudience(ctx, req.(*handler.PreviewAudienceRequest), res.(*handler.PreviewAudienceResponse))
			},
		},
	})

	// create_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathCreateCampaign,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.CreateCampaignRequest),
			Res: new(handler.CreateCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.CreateCampaign(ctx, req.(*handler.CreateCampaignRequest), res.(*handler.CreateCampaignResponse))
			},
		},
	})

	// send_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathSendCampaign,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.SendCampaignRequest),
			Res: new(handler.SendCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.SendCampaign(ctx, req.(*handler.SendCampaignRequest), res.(*handler.SendCampaignResponse))
			},
		},
	})

	// get_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaign,
		Method:      http.MethodGet,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.GetCampaignRequest),
			Res: new(handler.GetCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaign(ctx, req.(*handler.GetCampaignRequest), res.(*handler.GetCampaignResponse))
			},
		},
	})

	// get_campaigns
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaigns,
		Method:      http.MethodGet,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.GetCampaignsRequest),
			Res: new(handler.GetCampaignsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaigns(ctx, req.(*handler.GetCampaignsRequest), res.(*handler.GetCampaignsResponse))
			},
		},
	})

	// on_delivery_receipt, called by the delivery vendor
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathOnDeliveryReceipt,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.OnDeliveryReceiptRequest),
			Res: new(handler.OnDeliveryReceiptResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.OnDeliveryReceipt(ctx, req.(*handler.OnDeliveryReceiptRequest), res.(*handler.OnDeliveryReceiptResponse))
			},
		},
	})

	// get_account_stats
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetAccountStats,
		Method:      http.MethodGet,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.GetAccountStatsRequest),
			Res: new(handler.GetAccountStatsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.statsHandler.GetAccountStats(ctx, req.(*handler.GetAccountStatsRequest), res.(*handler.GetAccountStatsResponse))
			},
		},
	})

	// generate_filter
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGenerateFilter,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.GenerateFilterRequest),
			Res: new(handler.GenerateFilterResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.assistHandler.GenerateFilter(ctx, req.(*handler.GenerateFilterRequest), res.(*handler.GenerateFilterResponse))
			},
		},
	})

	// suggest_message
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathSuggestMessage,
		Method:      http.MethodPost,
		Middlewares: authed,
		Handler: router.Handler{
			Req: new(handler.SuggestMessageRequest),
			Res: new(handler.SuggestMessageResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.assistHandler.SuggestMessage(ctx, req.(*handler.SuggestMessageRequest), res.(*handler.SuggestMessageResponse))
			},
		},
	})

	return r
}
