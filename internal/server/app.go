package server

import (
	"perfumeshop/internal/config"
	"perfumeshop/internal/handler"
	"perfumeshop/internal/infra/oauth"
	infraRepo "perfumeshop/internal/infra/repository"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/metrics"
	"perfumeshop/internal/middleware"
	"perfumeshop/internal/usecase"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// 外から差し込む部品（limiterはnil可）
type Deps struct {
	DB       *gorm.DB
	Limiter  middleware.RateLimiter
	Mailer   usecase.Mailer
	Registry *prometheus.Registry
}

// Repository → Usecase → Handler を組み立ててルートを載せたechoを返す
func NewApp(cfg config.Config, logg *logger.Logger, deps Deps) (*echo.Echo, error) {
	gormDB := deps.DB

	// Registryがnilなら/metricsは出さない（nilの*Registryをinterfaceに入れない）
	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if deps.Registry != nil {
		reg, gatherer = deps.Registry, deps.Registry
	}
	m := metrics.New(reg)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	ticketRepo := infraRepo.NewSupportTicketGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	resetRepo := infraRepo.NewPasswordResetGormRepository(gormDB)
	analyticsRepo := infraRepo.NewAnalyticsGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := auth.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(cfg.Shop.BcryptCost)
	issuer := auth.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	// nilの*GoogleProviderをinterfaceに入れない
	var google auth.GoogleProvider
	if p := oauth.NewGoogleProvider(cfg.Google); p != nil {
		google = p
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, hasher, issuer, clock, m)
	googleUC := auth.NewGoogleLoginUsecase(userRepo, google, issuer, clock, m)
	accountUC := usecase.NewAuthUsecase(
		userRepo, resetRepo, auditRepo, hasher, issuer,
		deps.Mailer, cfg.Shop.PasswordResetTTL, cfg.App.FEURL,
	)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, txm)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, txm, m)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo, cartUC)
	orderUC := usecase.NewOrderUsecase(txm, addressRepo, cartRepo, cartRepo, couponRepo, m)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	supportUC := usecase.NewSupportUsecase(ticketRepo, userRepo, orderRepo, auditRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, m)
	couponUC := usecase.NewCouponUsecase(couponRepo, txm)
	exportUC := usecase.NewExportUsecase(orderRepo, orderItemRepo, userRepo, productRepo, auditRepo)
	analyticsUC := usecase.NewAnalyticsUsecase(analyticsRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	h := Handlers{
		Auth:           handler.NewAuthHandler(registerUC, loginUC, googleUC, accountUC, cartUC, cfg.Cookie),
		Product:        handler.NewProductHandler(productUC),
		Cart:           handler.NewCartHandler(cartUC, cfg.Cookie),
		Wishlist:       handler.NewWishlistHandler(wishlistUC),
		Order:          handler.NewOrderHandler(orderUC),
		Address:        handler.NewAddressHandler(addressUC),
		Support:        handler.NewSupportHandler(supportUC),
		AdminProduct:   handler.NewAdminProductHandler(productUC),
		AdminOrder:     handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:      handler.NewAdminUserHandler(accountUC, auditUC),
		AdminCoupon:    handler.NewAdminCouponHandler(couponUC),
		AdminExport:    handler.NewAdminExportHandler(exportUC),
		AdminAnalytics: handler.NewAdminAnalyticsHandler(analyticsUC),
		AdminTicket:    handler.NewAdminTicketHandler(supportUC),
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	e := NewEcho(cfg, logg, m, gatherer, sqlDB.PingContext)
	RegisterRoutes(e, BuildMiddlewares(cfg, userRepo, deps.Limiter, m, logg), h)
	return e, nil
}
