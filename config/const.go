package config

import "time"

const (
	PathHealthCheck       = "/"
	PathSignUp            = "/sign_up"
	PathLogIn             = "/log_in"
	PathLogOut            = "/log_out"
	PathUploadCustomers   = "/upload_customers"
	PathUploadOrders      = "/upload_orders"
	PathPreviewAudience   = "/preview_audience"
	PathCreateCampaign    = "/create_campaign"
	PathSendCampaign      = "/send_campaign"
	PathGetCampaign       = "/get_campaign"
	PathGetCampaigns      = "/get_campaigns"
	PathOnDeliveryReceipt = "/on_delivery_receipt"
	PathGetAccountStats   = "/get_account_stats"
	PathGenerateFilter    = "/generate_filter"
	PathSuggestMessage    = "/suggest_message"
)

const (
	DefaultPort   = 9090
	LogLevelDebug = "DEBUG"

	SessionExpiry = 90 * 24 * time.Hour

	// MaxAudienceSize caps resolver output; preview and dispatch share
	// it so they always agree.
	MaxAudienceSize = 100

	DefaultVendorSuccessRate = 0.9
)
