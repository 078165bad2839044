package issuerd

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// ChannelStatus is one channel's observable state: shape only, never key
// material.
type ChannelStatus struct {
	Channel       uint32 `json:"channel"`
	FramesEncoded uint64 `json:"frames_encoded"`
	LastTimestamp uint64 `json:"last_timestamp"`
}

// StatusFunc reports the current set of channels being served. It is called
// on every /status request, never on the encoding hot path.
type StatusFunc func() []ChannelStatus

// NewServer builds the issuer daemon's status-only admin API: /healthz for
// liveness probes and /status for a channel-by-channel frame counter dump.
// Uses the same recover+logger middleware and fiber.Map JSON response shape
// as other fiber-based admin APIs in this stack; the signing/key endpoints
// are replaced with read-only encoder telemetry, since this domain's decoder
// link (see internal/link) carries subscriptions and frames, not an HTTP
// signing RPC.
func NewServer(h *Health, status StatusFunc) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if !h.IsHealthy() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"healthy":    false,
				"goroutines": h.GoroutineCount(),
			})
		}
		return c.JSON(fiber.Map{
			"healthy":              true,
			"frames_encoded":       h.FramesEncoded(),
			"seconds_since_encode": h.SecondsSinceActivity(),
			"goroutines":           h.GoroutineCount(),
		})
	})

	app.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"channels": status(),
		})
	})

	return app
}
