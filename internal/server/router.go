package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// APIHandlers groups the transport handlers mounted on the router.
type APIHandlers struct {
	Orders   OrderAPI
	Payments PaymentAPI
}

// RouterOption customizes the router during construction.
type RouterOption func(*gin.Engine)

// WithTracing mounts the OpenTelemetry gin middleware for the given service.
func WithTracing(serviceName string) RouterOption {
	return func(engine *gin.Engine) {
		engine.Use(otelgin.Middleware(serviceName))
	}
}

// NewRouter mounts every route of the API. Identity-carrying routes sit
// behind the actor middleware; the gateway callback does not, since the
// provider authenticates out of band.
func NewRouter(handlers APIHandlers, opts ...RouterOption) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	for _, opt := range opts {
		opt(engine)
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")

	authed := v1.Group("")
	authed.Use(RequireActor())
	{
		authed.POST("/orders", handlers.Orders.PlaceOrder)
		authed.GET("/orders", handlers.Orders.ListOrders)
		authed.GET("/orders/:orderId", handlers.Orders.GetOrder)
		authed.PATCH("/orders/:orderId/status", handlers.Orders.UpdateOrderStatus)
		authed.POST("/orders/:orderId/assign", handlers.Orders.AssignOrder)

		authed.GET("/orders/:orderId/payment", handlers.Payments.GetPaymentForOrder)
		authed.POST("/orders/:orderId/payment", handlers.Payments.CreatePaymentForOrder)

		authed.GET("/payments/:paymentId", handlers.Payments.GetPayment)
		authed.PATCH("/payments/:paymentId/status", handlers.Payments.UpdatePaymentStatus)
		authed.POST("/payments/:paymentId/mobile-money", handlers.Payments.InitiateMobileMoney)
		authed.GET("/payments/:paymentId/mobile-money", handlers.Payments.CheckMobileMoneyStatus)
	}

	v1.POST("/gateway/callbacks", handlers.Payments.GatewayCallback)

	return engine
}
