package constants

const (
	AppStorefrontService = "storefront-service"
	AudienceStorefront   = "audience-storefront"

	// Redis pub/sub channels consumed by the notification service.
	ChannelOrderEvents = "order.events"
	ChannelCartEvents  = "cart.events"
)
