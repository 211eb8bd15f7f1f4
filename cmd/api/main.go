package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/omise/omise-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/you/court-booking/internal/consumer"
	"github.com/you/court-booking/internal/gateway"
	"github.com/you/court-booking/internal/handlers"
	"github.com/you/court-booking/internal/middlewares"
	"github.com/you/court-booking/internal/pricing"
	"github.com/you/court-booking/internal/repository"
	"github.com/you/court-booking/internal/service"
	"github.com/you/court-booking/pkg/config"
	"github.com/you/court-booking/pkg/db"
	"github.com/you/court-booking/pkg/metrics"
	"github.com/you/court-booking/pkg/mq"
	"github.com/you/court-booking/pkg/obs"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	_ = godotenv.Load()

	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("court-booking")
	m := metrics.New()

	gdb := db.Open(cfg.PGDSN)
	if err := repository.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	courts := repository.NewCourtRepo(gdb)
	rules := repository.NewPricingRuleRepo(gdb)
	bookings := repository.NewBookingRepo(gdb)
	occurrences := repository.NewOccurrenceRepo(gdb)
	payments := repository.NewPaymentRepo(gdb)
	vouchers := repository.NewVoucherRepo(gdb)
	memberships := repository.NewMembershipRepo(gdb)
	orders := repository.NewOrderRepo(gdb)
	settlements := repository.NewCheckoutRepo(gdb)
	customers := repository.NewCustomerDirectory(gdb)

	pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.EventsExchange))
	defer pub.Close()

	var omc *omise.Client
	var gw service.PaymentGateway
	if cfg.OmiseSecretKey != "" {
		omc = must(omise.NewClient(cfg.OmisePublicKey, cfg.OmiseSecretKey))
		gw = must(gateway.NewOmiseGateway(cfg.OmisePublicKey, cfg.OmiseSecretKey))
	} else {
		log.Println("[api] no omise keys configured, bank QR generation disabled")
	}

	resolver := pricing.NewResolver(rules, m)
	discounts := service.NewDiscountSvc(vouchers, memberships, customers, m)
	holds := service.NewHoldSvc(payments, occurrences, bookings, pub, gw, m, cfg.HoldMinutes)
	bookingSvc := service.NewBookingSvc(bookings, occurrences, resolver, discounts, holds, pub, m)
	checkoutSvc := service.NewCheckoutSvc(occurrences, orders, settlements, bookings, discounts, pub, m, cfg.LateFeePercent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// apply gateway confirmations published by the webhook
	paymentCons := must(mq.NewConsumer(cfg.RabbitURL, cfg.EventsExchange, cfg.PaymentQueue, []string{"payment.paid"}))
	defer paymentCons.Close()
	pc := consumer.NewPaymentConsumer(holds, paymentCons)
	must(0, pc.Run(ctx))
	log.Println("[api] payment consumer started")

	// hold-expiry sweep
	go holds.RunSweeper(ctx, time.Duration(cfg.HoldSweepIntervalSec)*time.Second)

	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bh := handlers.NewBookingHandler(bookingSvc)
	ch := handlers.NewCheckoutHandler(checkoutSvc)
	vh := handlers.NewVoucherHandler(discounts, vouchers)
	prh := handlers.NewPricingHandler(rules)
	coh := handlers.NewCourtHandler(courts)
	ph := handlers.NewPaymentHandler(holds, payments)

	if omc != nil {
		wh := handlers.NewWebhookHandler(omc, pub)
		r.POST("/webhooks/omise", wh.Handle)
	}

	v1 := r.Group("/v1")
	v1.Use(middlewares.JWTAuth())
	{
		v1.POST("/bookings", bh.Create)
		v1.GET("/bookings/:id", bh.Get)
		v1.GET("/bookings/:id/payment", ph.OpenForBooking)
		v1.POST("/bookings/:id/cancel", bh.Cancel)
		v1.GET("/occurrences", bh.ListOccurrences)
		v1.POST("/occurrences/:id/cancel", bh.CancelOccurrence)
		v1.POST("/occurrences/:id/checkout-estimate", ch.Estimate)
		v1.GET("/occurrences/:id/receipt", ch.Receipt)
		v1.POST("/vouchers/validate", vh.Validate)
		v1.GET("/courts", coh.List)
		v1.GET("/pricing-rules", prh.List)
		v1.GET("/payments/:id", ph.Get)
		v1.POST("/payments/:id/cancel", ph.Cancel)

		staff := v1.Group("")
		staff.Use(middlewares.RequireRole("STAFF", "ADMIN"))
		{
			staff.POST("/occurrences/:id/checkin", bh.CheckIn)
			staff.POST("/occurrences/:id/no-show", bh.MarkNoShow)
			staff.POST("/occurrences/:id/checkout", ch.Checkout)
			staff.POST("/payments/:id/confirm-cash", ph.ConfirmCash)
			staff.POST("/payments/:id/reconcile", ph.Reconcile)
		}

		admin := v1.Group("")
		admin.Use(middlewares.RequireRole("ADMIN"))
		{
			admin.POST("/courts", coh.Create)
			admin.POST("/pricing-rules", prh.Create)
			admin.POST("/vouchers", vh.Create)
			admin.POST("/holds/expire", ph.ExpireStale)
		}
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Println("[api] listening on", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = shutdownTracer(shutdownCtx)
	log.Println("[api] stopped")
}
