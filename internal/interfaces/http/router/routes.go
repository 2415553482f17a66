package router

import (
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/interfaces/http/handler"
	"github.com/cobranzas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the handlers mounted under the API prefix
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Customer   *handler.CustomerHandler
	Product    *handler.ProductHandler
	Sale       *handler.SaleHandler
	Collection *handler.CollectionHandler
	Report     *handler.ReportHandler
	Offline    *handler.OfflineHandler
	System     *handler.SystemHandler
}

// Guards are the per-route access middleware
type Guards struct {
	// Admin restricts a route to administrators. Defaults to RequireRole(ADMIN).
	Admin gin.HandlerFunc
	// Login throttles login attempts. Optional.
	Login gin.HandlerFunc
}

// APIGroups builds the route groups of the collections API. Authentication
// is applied by the JWT middleware on the engine; routes open to collectors
// rely on the services to scope data to the caller.
func APIGroups(h Handlers, g Guards) []*DomainGroup {
	admin := g.Admin
	if admin == nil {
		admin = middleware.RequireRole(identity.RoleAdmin)
	}

	auth := NewDomainGroup("auth", "/auth").
		POST("/login", g.Login, h.Auth.Login).
		POST("/refresh", h.Auth.Refresh).
		POST("/logout", h.Auth.Logout)

	users := NewDomainGroup("users", "/users").
		Use(admin).
		GET("", h.User.List).
		POST("", h.User.Create).
		GET("/:id", h.User.GetByID).
		PUT("/:id/active", h.User.SetActive)

	collectors := NewDomainGroup("collectors", "/collectors").
		Use(admin).
		GET("", h.User.ListCollectors)

	customers := NewDomainGroup("customers", "/customers").
		GET("", h.Customer.List).
		GET("/:id", h.Customer.GetByID).
		POST("", admin, h.Customer.Create).
		PUT("/:id", admin, h.Customer.Update).
		PUT("/:id/collector", admin, h.Customer.AssignCollector).
		DELETE("/:id", admin, h.Customer.Delete)

	products := NewDomainGroup("products", "/products").
		Use(admin).
		GET("", h.Product.List).
		GET("/:id", h.Product.GetByID).
		POST("", h.Product.Create).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete)

	sales := NewDomainGroup("sales", "/sales").
		GET("", h.Sale.List).
		GET("/:id", h.Sale.GetByID).
		GET("/:id/scheme", h.Sale.Scheme).
		POST("", admin, h.Sale.Create).
		PUT("/:id", admin, h.Sale.Update).
		PUT("/:id/uncollectible", admin, h.Sale.SetUncollectible).
		PUT("/:id/collector", admin, h.Sale.AssignCollector).
		DELETE("/:id", admin, h.Sale.Delete)

	collections := NewDomainGroup("collections", "/collections").
		POST("", h.Collection.Record).
		GET("", h.Collection.List).
		POST("/deliver", h.Collection.Deliver).
		GET("/intake/:customer_id", h.Collection.Intake).
		PUT("/applications/:id", h.Collection.ReviseApplication).
		GET("/:id", h.Collection.GetByID).
		GET("/:id/receipt", h.Collection.Receipt)

	reports := NewDomainGroup("reports", "/reports").
		GET("/pending-balance", h.Report.PendingBalance).
		GET("/defaulters", h.Report.Defaulters).
		GET("/delivery", h.Report.Delivery)

	offline := NewDomainGroup("offline", "/offline").
		GET("/snapshot", h.Offline.Snapshot).
		GET("/sync-marker", h.Offline.SyncMarker).
		POST("/collections", h.Offline.WriteBack)

	system := NewDomainGroup("system", "").
		GET("/health", h.System.Health)

	return []*DomainGroup{auth, users, collectors, customers, products, sales, collections, reports, offline, system}
}

// RegisterAPI registers every API group on r
func RegisterAPI(r *Router, h Handlers, g Guards) *Router {
	for _, group := range APIGroups(h, g) {
		r.Register(group)
	}
	return r
}
