package cli

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	fiberzap "github.com/gofiber/contrib/v3/zap"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/template/html/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/config"
	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/handlers"
	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/middleware"
	"github.com/votegrid/canvass/internal/notify"
)

//go:embed views/*.html
var viewsFS embed.FS

var (
	servePort        string
	serveDatabaseURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the campaign site backend",
	Long: `Run the HTTP server.

Pending migrations are applied on startup. Configuration comes from
canvass.toml, CANVASS-style environment variables, or the flags below.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.LoadWithOverrides(serveDatabaseURL, servePort)
	if err != nil {
		return err
	}

	if err := connectDatabase(cfg.DatabaseURL); err != nil {
		return err
	}
	defer func() { _ = closeDatabase() }()

	if err := database.Migrate(database.DB); err != nil {
		return err
	}

	app := newServer(cfg)

	logging.L().Info("canvass listening",
		zap.String("port", cfg.Port),
		zap.Bool("admin_enabled", cfg.AdminToken != ""),
		zap.Strings("trusted_origins", cfg.TrustedOrigins),
	)
	return app.Listen(":" + cfg.Port)
}

// newServer assembles the fiber app: views, middleware, routes.
func newServer(cfg *config.Config) *fiber.App {
	views, _ := fs.Sub(viewsFS, "views")
	engine := html.NewFileSystem(http.FS(views), ".html")

	app := fiber.New(createFiberConfig("canvass", engine))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logging.L(),
		Fields: []string{"latency", "status", "method", "url"},
	}))
	app.Use(helmet.New())

	corsConfig := cors.Config{}
	if len(cfg.TrustedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.TrustedOrigins
	}
	app.Use(cors.New(corsConfig))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
	}))

	handlers.Configure(handlers.Deps{
		DonateURL:            cfg.DonateURL,
		LeadsNotifyEmail:     cfg.LeadsNotifyEmail,
		VolunteerNotifyEmail: cfg.VolunteerNotifyEmail,
		Mailer:               notify.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom),
	})

	app.Get("/health", handlers.HandleHealth)
	app.Get("/admin", handlers.HandleAdminPage)

	app.Post("/api/leads", handlers.HandleCreateLead)
	app.Get("/api/donate", handlers.HandleDonateRedirect)
	app.Post("/api/volunteer", handlers.HandleVolunteerSignup)

	admin := app.Group("/api/admin", middleware.AdminAuth(cfg.AdminToken))
	admin.Get("/metrics", handlers.HandleMetrics)
	admin.Get("/timeseries", handlers.HandleTimeseries)
	admin.Get("/attribution", handlers.HandleAttribution)
	admin.Get("/pipeline", handlers.HandlePipeline)
	admin.Get("/leads", handlers.HandleListLeads)
	admin.Get("/leads.csv", handlers.HandleExportLeads)
	admin.Patch("/leads/:id", handlers.HandleUpdateLead)

	return app
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (default 4000)")
	serveCmd.Flags().StringVarP(&serveDatabaseURL, "database-url", "d", "", "PostgreSQL connection URL")

	RootCmd.AddCommand(serveCmd)
}
