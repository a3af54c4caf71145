package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	rh "github.com/coreybb/denima/route-handlers"
	"github.com/coreybb/denima/webutil"
)

const (
	apiBasePath             = "/api/v1"
	authBasePath            = "/auth"
	servicesBasePath        = "/services"
	offerBasePath           = "/offer"
	digitalProductsBasePath = "/digital-products"
	menuSectionsBasePath    = "/menu-sections"
	productsBasePath        = "/products"
	ordersBasePath          = "/orders"
	uploadsBasePath         = "/uploads"
	adminBasePath           = "/admin"
)

const (
	imagesSubPath = "/images"
	statusSubPath = "/status"
)

const (
	paramID      = "id" // General parameter name for resource IDs
	paramImageID = "imageID"
)

const (
	requestTimeout = 60 * time.Second
	healthTimeout  = 2 * time.Second
)

// Handlers groups the resource handlers mounted under the API prefix.
type Handlers struct {
	Auth            *rh.AuthHandler
	Services        *rh.ServiceHandler
	Offer           *rh.OfferHandler
	DigitalProducts *rh.DigitalProductHandler
	MenuSections    *rh.MenuSectionHandler
	Products        *rh.ProductHandler
	ProductImages   *rh.ProductImageHandler
	Orders          *rh.OrderHandler
	Uploads         *rh.UploadHandler
	Admin           *rh.AdminHandler
	Static          http.Handler
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	CORSOrigins  []string
	UploadDir    string // served under /uploads when set
	Gate         *Gate
	AuthLimiter  *RateLimiter
	OrderLimiter *RateLimiter
	Metrics      *Metrics
	DB           Pinger
}

// access gates, from least to most restrictive.
type gates struct {
	optional func(http.Handler) http.Handler
	authed   func(http.Handler) http.Handler
	active   func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
}

func SetupRoutes(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(CORS(cfg.CORSOrigins))

	g := gates{
		optional: Pipeline(cfg.Gate.OptionalAuthenticate),
		authed:   Pipeline(cfg.Gate.Authenticate),
		active:   Pipeline(cfg.Gate.Authenticate, RequireNotBanned),
		admin:    Pipeline(cfg.Gate.Authenticate, RequireAdmin),
	}

	r.Route(apiBasePath, func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8))
		r.NotFound(handleAPINotFound)
		r.MethodNotAllowed(handleMethodNotAllowed)

		configureAuthRoutes(r, h.Auth, g, cfg.AuthLimiter)
		configureServiceRoutes(r, h.Services, g)
		configureOfferRoutes(r, h.Offer, g)
		configureDigitalProductRoutes(r, h.DigitalProducts, g)
		configureMenuSectionRoutes(r, h.MenuSections, g)
		configureProductRoutes(r, h.Products, h.ProductImages, g)
		configureOrderRoutes(r, h.Orders, g, cfg.OrderLimiter)
		r.With(g.admin).Post(uploadsBasePath, webutil.MakeHandler(h.Uploads.HandleUploadImage))
		configureAdminRoutes(r, h, g)
	})

	r.Get("/healthz", handleHealthCheck(cfg.DB))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}
	if cfg.UploadDir != "" {
		r.Handle(uploadsBasePath+"/*", http.StripPrefix(uploadsBasePath, noDirListing(http.FileServer(http.Dir(cfg.UploadDir)))))
	}
	if h.Static != nil {
		r.Handle("/*", h.Static)
	}

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

// limited applies limiter when one is configured.
func limited(limiter *RateLimiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return limiter.Handler
}

// --- Auth Routes ---
func configureAuthRoutes(r chi.Router, handler *rh.AuthHandler, g gates, limiter *RateLimiter) {
	r.Route(authBasePath, func(r chi.Router) {
		r.With(limited(limiter)).Post("/register", webutil.MakeHandler(handler.HandleRegister))
		r.With(limited(limiter)).Post("/login", webutil.MakeHandler(handler.HandleLogin))

		r.Group(func(r chi.Router) {
			r.Use(g.authed)
			r.Get("/profile", webutil.MakeHandler(handler.HandleGetProfile))
			r.Put("/profile", webutil.MakeHandler(handler.HandleUpdateProfile))
			r.Post("/change-password", webutil.MakeHandler(handler.HandleChangePassword))
			r.Get("/verify", webutil.MakeHandler(handler.HandleVerify))
		})
	})
}

// --- Service Routes ---
func configureServiceRoutes(r chi.Router, handler *rh.ServiceHandler, g gates) {
	specificServicePath := pathWithParam("", paramID) // e.g., "/{id}"

	r.Route(servicesBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetServices))
		r.Get(specificServicePath, webutil.MakeHandler(handler.HandleGetService))

		r.Group(func(r chi.Router) {
			r.Use(g.admin)
			r.Post("/", webutil.MakeHandler(handler.HandleCreateService))
			r.Put(specificServicePath, webutil.MakeHandler(handler.HandleUpdateService))
			r.Delete(specificServicePath, webutil.MakeHandler(handler.HandleDeleteService))
		})
	})
}

// --- Offer Routes ---
func configureOfferRoutes(r chi.Router, handler *rh.OfferHandler, g gates) {
	r.Route(offerBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetOffer))
		r.With(g.admin).Put("/", webutil.MakeHandler(handler.HandleUpdateOffer))
		r.With(g.admin).Get("/available-services", webutil.MakeHandler(handler.HandleGetAvailableServices))
	})
}

// --- Digital Product Routes ---
func configureDigitalProductRoutes(r chi.Router, handler *rh.DigitalProductHandler, g gates) {
	specificProductPath := pathWithParam("", paramID)

	r.Route(digitalProductsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetDigitalProducts))
		r.Get(specificProductPath, webutil.MakeHandler(handler.HandleGetDigitalProduct))

		r.Group(func(r chi.Router) {
			r.Use(g.admin)
			r.Post("/", webutil.MakeHandler(handler.HandleCreateDigitalProduct))
			r.Put(specificProductPath, webutil.MakeHandler(handler.HandleUpdateDigitalProduct))
			r.Delete(specificProductPath, webutil.MakeHandler(handler.HandleDeleteDigitalProduct))
		})
	})
}

// --- Menu Section Routes ---
func configureMenuSectionRoutes(r chi.Router, handler *rh.MenuSectionHandler, g gates) {
	specificSectionPath := pathWithParam("", paramID)

	r.Route(menuSectionsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetMenuSections))

		r.Group(func(r chi.Router) {
			r.Use(g.admin)
			r.Post("/", webutil.MakeHandler(handler.HandleCreateMenuSection))
			r.Put(specificSectionPath, webutil.MakeHandler(handler.HandleUpdateMenuSection))
			r.Delete(specificSectionPath, webutil.MakeHandler(handler.HandleDeleteMenuSection))
		})
	})
}

// --- Marketplace Product Routes ---
func configureProductRoutes(r chi.Router, handler *rh.ProductHandler, images *rh.ProductImageHandler, g gates) {
	specificProductPath := pathWithParam("", paramID) // e.g., "/{id}"

	r.Route(productsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetProducts))
		r.With(g.authed).Get("/mine", webutil.MakeHandler(handler.HandleGetMyProducts))
		r.With(g.optional).Get(specificProductPath, webutil.MakeHandler(handler.HandleGetProduct))

		// Marketplace mutations are closed to banned users.
		r.Group(func(r chi.Router) {
			r.Use(g.active)
			r.Post("/", webutil.MakeHandler(handler.HandleCreateProduct))
			r.Put(specificProductPath, webutil.MakeHandler(handler.HandleUpdateProduct))
			r.Delete(specificProductPath, webutil.MakeHandler(handler.HandleDeleteProduct))

			// Nested: images of a product
			productImagesPath := specificProductPath + imagesSubPath
			r.Post(productImagesPath, webutil.MakeHandler(images.HandleUploadProductImage))                                // POST /products/{id}/images
			r.Delete(pathWithParam(productImagesPath, paramImageID), webutil.MakeHandler(images.HandleDeleteProductImage)) // DELETE /products/{id}/images/{imageID}
		})
	})
}

// --- Order Routes ---
func configureOrderRoutes(r chi.Router, handler *rh.OrderHandler, g gates, limiter *RateLimiter) {
	specificOrderPath := pathWithParam("", paramID)

	r.Route(ordersBasePath, func(r chi.Router) {
		r.With(limited(limiter)).Post("/", webutil.MakeHandler(handler.HandleCreateOrder))

		r.Group(func(r chi.Router) {
			r.Use(g.admin)
			r.Get("/", webutil.MakeHandler(handler.HandleGetOrders))
			r.Get(specificOrderPath, webutil.MakeHandler(handler.HandleGetOrder))
			r.Patch(specificOrderPath+statusSubPath, webutil.MakeHandler(handler.HandleUpdateOrderStatus)) // PATCH /orders/{id}/status
		})
	})
}

// --- Admin Routes ---
func configureAdminRoutes(r chi.Router, h Handlers, g gates) {
	specificPath := pathWithParam("", paramID)

	r.Route(adminBasePath, func(r chi.Router) {
		r.Use(g.admin)

		r.Get("/users", webutil.MakeHandler(h.Admin.HandleGetUsers))
		r.Route("/users"+specificPath, func(r chi.Router) {
			r.Post("/ban", webutil.MakeHandler(h.Admin.HandleBanUser))
			r.Post("/unban", webutil.MakeHandler(h.Admin.HandleUnbanUser))
			r.Put("/role", webutil.MakeHandler(h.Admin.HandleSetUserRole))
		})

		r.Get("/products", webutil.MakeHandler(h.Products.HandleAdminGetProducts))
		r.Put("/products"+specificPath+statusSubPath, webutil.MakeHandler(h.Products.HandleSetProductStatus))
		r.Delete("/products"+specificPath, webutil.MakeHandler(h.Products.HandleDeleteProduct))

		r.Get("/digital-products", webutil.MakeHandler(h.DigitalProducts.HandleAdminGetDigitalProducts))
		r.Get("/stats", webutil.MakeHandler(h.Admin.HandleGetStats))
	})
}

// --- Utility Functions ---

// handleHealthCheck reports ok when the database answers a ping.
func handleHealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				zap.L().Error("health check failed", zap.Error(err))
				webutil.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithError(w, r, webutil.ErrNotFound("API endpoint not found"))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error":   "MethodNotAllowed",
		"message": "Method not allowed",
	})
}

// noDirListing answers 404 for directory paths instead of listing them.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
