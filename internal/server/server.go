package server

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/re-earth/re-earth-api/internal/config"
	_ "github.com/re-earth/re-earth-api/internal/docs"
	"github.com/re-earth/re-earth-api/internal/handler"
	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/metrics"
	appmw "github.com/re-earth/re-earth-api/internal/middleware"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/oauth"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/reward"
	"github.com/re-earth/re-earth-api/internal/service"
	"github.com/re-earth/re-earth-api/internal/session"
	"github.com/re-earth/re-earth-api/internal/storage"
	"github.com/re-earth/re-earth-api/internal/token"
	echoSwagger "github.com/swaggo/echo-swagger"
	"gorm.io/gorm"
)

// Deps are the collaborators built by the caller. DB may be nil and set later with SetDB.
type Deps struct {
	DB       *gorm.DB
	Store    kvstore.Store
	Uploader storage.Uploader
	Stations service.StationSource
	Sha      string
	Build    string
}

type dbSetter interface {
	SetDB(db *gorm.DB)
}

type Server struct {
	e     *echo.Echo
	cfg   *config.Config
	repos []dbSetter
	ready atomic.Bool
}

func weights(cfg *config.Config) reward.Weights {
	return reward.Weights{
		"TOP":    cfg.WeightTop,
		"BOTTOM": cfg.WeightBottom,
		"OUTER":  cfg.WeightOuter,
		"SHOES":  cfg.WeightShoes,
		"BAG":    cfg.WeightBag,
		"ETC":    cfg.WeightEtc,
	}
}

func New(cfg *config.Config, d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{strings.TrimRight(cfg.FrontendURL, "/")},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	userRepo := repository.NewUserRepository(d.DB)
	itemRepo := repository.NewItemRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	donationRepo := repository.NewDonationRepository(d.DB)
	ecoRepo := repository.NewEcoRepository(d.DB)
	pointRepo := repository.NewPointRepository(d.DB)
	qnaRepo := repository.NewQnaRepository(d.DB)
	memberRepo := repository.NewMemberRepository(d.DB)

	tokens := token.NewService(cfg.JWTSecret, cfg.JWTTTL)
	sessions := session.NewManager(d.Store, cfg.CookieSecret, cfg.SessionTTL, cfg.IsProduction())
	social := oauth.NewManager(d.Store)
	social.RegisterGoogle(oauth.Settings{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		CallbackURL:  cfg.GoogleCallbackURL,
		Scopes:       config.Scopes(cfg.GoogleScope),
	})
	social.RegisterKakao(oauth.Settings{
		ClientID:     cfg.KakaoClientID,
		ClientSecret: cfg.KakaoClientSecret,
		CallbackURL:  cfg.KakaoCallbackURL,
		Scopes:       config.Scopes(cfg.KakaoScope),
	})

	authSvc := service.NewAuthService(userRepo, tokens)
	itemSvc := service.NewItemService(itemRepo, d.Uploader)
	orderSvc := service.NewOrderService(orderRepo)
	donationSvc := service.NewDonationService(donationRepo, d.Store, service.DonationOptions{
		OTPTTL:     time.Duration(cfg.OTPTTLSec) * time.Second,
		Weights:    weights(cfg),
		UnitPoint:  cfg.DonationPointPerUnit,
		Production: cfg.IsProduction(),
	})
	savingSvc := service.NewSavingService(ecoRepo, pointRepo, userRepo, d.Stations)
	qnaSvc := service.NewQnaService(qnaRepo)
	memberSvc := service.NewMemberService(memberRepo, userRepo)

	authHandler := handler.NewAuthHandler(authSvc, sessions, social)
	itemHandler := handler.NewItemHandler(itemSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	donationHandler := handler.NewDonationHandler(donationSvc)
	savingHandler := handler.NewSavingHandler(savingSvc)
	qnaHandler := handler.NewQnaHandler(qnaSvc)
	adminHandler := handler.NewAdminHandler(memberSvc, donationSvc, qnaSvc, savingSvc)

	s := &Server{
		e:     e,
		cfg:   cfg,
		repos: []dbSetter{userRepo, itemRepo, orderRepo, donationRepo, ecoRepo, pointRepo, qnaRepo, memberRepo},
	}
	s.ready.Store(d.DB != nil)

	auth := appmw.NewAuth(tokens, sessions, userRepo)
	e.Use(auth.Hydrate)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "RE-Earth API"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"ok":         true,
			"db":         s.ready.Load(),
			"git_sha":    d.Sha,
			"build_time": d.Build,
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/api-docs/*", echoSwagger.WrapHandler)
	if local, ok := d.Uploader.(*storage.Local); ok {
		e.Static(local.PublicPrefix, local.Dir)
	}

	login := appmw.RequireLogin
	guest := appmw.RequireGuest
	admin := appmw.RequireAdmin
	verify := appmw.VerifyToken

	a := e.Group("/auth")
	a.POST("/join", authHandler.Join, guest)
	a.POST("/login", authHandler.Login, guest)
	a.POST("/login-admin", authHandler.LoginAdmin, guest)
	a.PATCH("/edit", authHandler.Edit, login)
	a.POST("/token", authHandler.Token, login)
	a.POST("/check-username", authHandler.CheckUserID)
	a.POST("/check-nickname", authHandler.CheckNickname)
	a.POST("/check-email", authHandler.CheckEmail)
	a.GET("/logout", authHandler.Logout, login)
	a.GET("/status", authHandler.Status)
	a.GET("/me", authHandler.Me)
	a.GET("/google", authHandler.SocialStart(model.ProviderGoogle))
	a.GET("/google/callback", authHandler.SocialCallback(model.ProviderGoogle))
	a.GET("/kakao", authHandler.SocialStart(model.ProviderKakao))
	a.GET("/kakao/callback", authHandler.SocialCallback(model.ProviderKakao))

	sv := e.Group("/saving")
	sv.GET("/bicycles", savingHandler.Bicycles)
	sv.POST("/bicycle/end", savingHandler.EndRide, login)
	sv.POST("/recycle", savingHandler.Recycle)
	sv.GET("/logs", savingHandler.MyLogs, login)
	sv.GET("/points", savingHandler.MyPoints, login)

	dn := e.Group("/donations")
	otpLimit := appmw.RateLimitPerIP(cfg.OTPRatePerMin)
	dn.POST("/otp/request", donationHandler.RequestOTP, otpLimit)
	dn.POST("/otp/verify", donationHandler.VerifyOTP, otpLimit)
	dn.POST("", donationHandler.Create, login)
	dn.GET("/mine", donationHandler.ListMine, login)
	dn.GET("/:id", donationHandler.Get, login)
	dn.PUT("/:id/cancel", donationHandler.Cancel, login)

	it := e.Group("/item", verify)
	it.POST("", itemHandler.Create, admin)
	it.GET("", itemHandler.List)
	it.GET("/:id", itemHandler.Get)
	it.PUT("/:id", itemHandler.Update, admin)
	it.DELETE("/:id", itemHandler.Delete, admin)

	po := e.Group("/pointOrder", verify, login)
	po.POST("", orderHandler.Place)
	po.GET("/list", orderHandler.List)
	po.POST("/cancel/:id", orderHandler.Cancel)
	po.DELETE("/delete/:id", orderHandler.Delete)

	qn := e.Group("/qna", login)
	qn.POST("", qnaHandler.Create)
	qn.GET("/me", qnaHandler.ListMine)
	qn.GET("/:id", qnaHandler.Get)
	qn.DELETE("/:id", qnaHandler.Delete)

	ad := e.Group("/api/admin", admin)
	ad.GET("/members", adminHandler.Members)
	ad.GET("/members/stats", adminHandler.MemberStats)
	ad.GET("/members/:id", adminHandler.Member)
	ad.PUT("/members/:id", adminHandler.UpdateMember)
	ad.DELETE("/members", adminHandler.DeleteMembers)
	ad.GET("/donations/stats", adminHandler.DonationStats)
	ad.GET("/donations", adminHandler.Donations)
	ad.GET("/donations/:id", adminHandler.Donation)
	ad.PUT("/donations/:id", adminHandler.UpdateDonation)
	ad.GET("/qna", adminHandler.Questions)
	ad.POST("/qna/:id/answer", adminHandler.Answer)
	ad.PATCH("/qna/:id/status", adminHandler.QuestionStatus)
	ad.GET("/eco-actions", adminHandler.EcoActions)
	ad.POST("/eco-actions", adminHandler.CreateEcoAction)
	ad.PUT("/eco-actions/:id", adminHandler.UpdateEcoAction)
	ad.GET("/eco-action-logs", adminHandler.EcoLogs)
	ad.PATCH("/eco-action-logs/:id/status", adminHandler.EcoLogStatus)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.e.Server.ReadTimeout = s.cfg.ReadTimeout
	s.e.Server.WriteTimeout = s.cfg.WriteTimeout
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// SetDB hands a late database connection to every repository.
func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
	s.ready.Store(db != nil)
}
