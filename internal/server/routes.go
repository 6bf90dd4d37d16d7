package server

import (
	"perfumeshop/internal/config"
	"perfumeshop/internal/handler"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/metrics"
	"perfumeshop/internal/middleware"
	"perfumeshop/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth           *handler.AuthHandler
	Product        *handler.ProductHandler
	Cart           *handler.CartHandler
	Wishlist       *handler.WishlistHandler
	Order          *handler.OrderHandler
	Address        *handler.AddressHandler
	Support        *handler.SupportHandler
	AdminProduct   *handler.AdminProductHandler
	AdminOrder     *handler.AdminOrderHandler
	AdminUser      *handler.AdminUserHandler
	AdminCoupon    *handler.AdminCouponHandler
	AdminExport    *handler.AdminExportHandler
	AdminAnalytics *handler.AdminAnalyticsHandler
	AdminTicket    *handler.AdminTicketHandler
}

// 認可ミドルウェアを組み立てる。limiterがnilならレート制限なし
func BuildMiddlewares(cfg config.Config, users repository.UserRepository, limiter middleware.RateLimiter, m *metrics.Metrics, logg *logger.Logger) handler.Middlewares {
	// JWT必須 → token_version一致
	authChain := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg.JWT),
		middleware.TokenVersionGuard(users),
	}
	adminChain := append(append([]echo.MiddlewareFunc{}, authChain...), middleware.AdminRoleGuard())

	return handler.Middlewares{
		Auth: authChain,
		Optional: []echo.MiddlewareFunc{
			middleware.OptionalAuth(cfg.JWT),
			middleware.TokenVersionGuard(users),
		},
		Admin:         adminChain,
		LoginLimit:    middleware.RateLimit(limiter, "login", cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, m, logg),
		RegisterLimit: middleware.RateLimit(limiter, "register", cfg.RateLimit.RegisterLimit, cfg.RateLimit.RegisterWindow, m, logg),
	}
}

func RegisterRoutes(e *echo.Echo, mw handler.Middlewares, h Handlers) {
	// 公開
	h.Product.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, mw)

	// ゲスト可
	h.Cart.RegisterRoutes(e, mw)
	h.Support.RegisterRoutes(e, mw)

	// ログイン必須
	h.Wishlist.RegisterRoutes(e, mw)
	h.Order.RegisterRoutes(e, mw)
	h.Address.RegisterRoutes(e, mw)

	// 管理者
	h.AdminProduct.RegisterRoutes(e, mw)
	h.AdminOrder.RegisterRoutes(e, mw)
	h.AdminUser.RegisterRoutes(e, mw)
	h.AdminCoupon.RegisterRoutes(e, mw)
	h.AdminExport.RegisterRoutes(e, mw)
	h.AdminAnalytics.RegisterRoutes(e, mw)
	h.AdminTicket.RegisterRoutes(e, mw)
}
