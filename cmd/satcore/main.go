// Command satcore is the issuer-side CLI: secrets generation, subscription
// issuance, frame encoding, device image packaging, and an ambient status
// server. Built on urfave/cli/v3 for the command tree.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/satband/satcore/internal/chain"
	"github.com/satband/satcore/internal/decodersim"
	"github.com/satband/satcore/internal/deviceimage"
	"github.com/satband/satcore/internal/frame"
	"github.com/satband/satcore/internal/issuerd"
	"github.com/satband/satcore/internal/link"
	"github.com/satband/satcore/internal/secrets"
	"github.com/satband/satcore/internal/subscription"
)

func main() {
	app := &cli.Command{
		Name:  "satcore",
		Usage: "conditional-access key schedule, subscription, and frame tooling",
		Commands: []*cli.Command{
			genSecretsCmd(),
			genSubscriptionCmd(),
			encodeFrameCmd(),
			buildImageCmd(),
			statusCmd(),
			serveCmd(),
			demoCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fail(err)
	}
}

func genSecretsCmd() *cli.Command {
	return &cli.Command{
		Name:      "gen-secrets",
		Usage:     "generate a fresh secrets bundle (C5)",
		ArgsUsage: "<channel...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "secrets.json"},
			&cli.BoolFlag{Name: "force"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			channels, err := parseChannels(c.Args().Slice())
			if err != nil {
				return err
			}

			out := c.String("output")
			if !c.Bool("force") {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", out)
				}
			}

			bundle, err := secrets.Generate(channels)
			if err != nil {
				return err
			}

			passphrase, err := obtainPassphrase("set a passphrase for the new private key")
			if err != nil {
				return err
			}

			raw, err := bundle.MarshalJSON(passphrase)
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, raw, 0o600); err != nil {
				return err
			}

			fmt.Printf("wrote %s for channels %v\n", out, bundle.Channels)
			return nil
		},
	}
}

func genSubscriptionCmd() *cli.Command {
	return &cli.Command{
		Name:      "gen-subscription",
		Usage:     "issue a subscription blob for one decoder and channel (C3+C4)",
		ArgsUsage: "secrets.json out.sub <device-id> <start> <end> <channel>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			args := c.Args().Slice()
			if len(args) != 6 {
				return fmt.Errorf("expected secrets.json out.sub device-id start end channel, got %d args", len(args))
			}
			secretsPath, outPath := args[0], args[1]

			deviceID, err := parseUint32(args[2])
			if err != nil {
				return err
			}
			start, err := parseUint64(args[3])
			if err != nil {
				return err
			}
			end, err := parseUint64(args[4])
			if err != nil {
				return err
			}
			channel, err := parseUint32(args[5])
			if err != nil {
				return err
			}

			if !c.Bool("force") {
				if _, err := os.Stat(outPath); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", outPath)
				}
			}

			bundle, err := loadBundle(secretsPath)
			if err != nil {
				return err
			}
			roots, err := bundle.ChannelRoots(channel)
			if err != nil {
				return err
			}

			blob, err := subscription.Build(chain.New(), channel, start, end, roots.Forward, roots.Backward, bundle.SystemSecret, deviceID)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, blob, 0o600); err != nil {
				return err
			}

			fmt.Printf("wrote %s (%s)\n", outPath, subscription.Fingerprint(blob))
			return nil
		},
	}
}

func encodeFrameCmd() *cli.Command {
	return &cli.Command{
		Name:      "encode-frame",
		Usage:     "encode one payload into a signed, masked frame (C6)",
		ArgsUsage: "secrets.json <channel> <frame-hex> <timestamp>",
		Action: func(ctx context.Context, c *cli.Command) error {
			args := c.Args().Slice()
			if len(args) != 4 {
				return fmt.Errorf("expected secrets.json channel frame-hex timestamp, got %d args", len(args))
			}

			bundle, err := loadBundle(args[0])
			if err != nil {
				return err
			}
			channel, err := parseUint32(args[1])
			if err != nil {
				return err
			}
			payload, err := hex.DecodeString(args[2])
			if err != nil {
				return fmt.Errorf("bad frame-hex: %w", err)
			}
			t, err := parseUint64(args[3])
			if err != nil {
				return err
			}

			roots, err := bundle.ChannelRoots(channel)
			if err != nil {
				return err
			}

			enc := frame.NewEncoder(chain.New(), channel, roots.Forward, roots.Backward, bundle.Private)
			raw, err := enc.Encode(payload, t)
			if err != nil {
				return err
			}

			fmt.Println(hex.EncodeToString(raw))
			return nil
		},
	}
}

func buildImageCmd() *cli.Command {
	return &cli.Command{
		Name:      "build-image",
		Usage:     "build keys.bin/emergency.bin/public.bin and a FAT32 decoder image",
		ArgsUsage: "secrets.json <decoder-id> out.img",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "xz", Usage: "also write out.img.xz"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			args := c.Args().Slice()
			if len(args) != 3 {
				return fmt.Errorf("expected secrets.json decoder-id out.img, got %d args", len(args))
			}

			bundle, err := loadBundle(args[0])
			if err != nil {
				return err
			}
			decoderID, err := parseUint32(args[1])
			if err != nil {
				return err
			}
			outPath := args[2]

			chn := chain.New()
			artifacts, err := deviceimage.BuildArtifacts(chn, bundle, decoderID)
			if err != nil {
				return err
			}
			if err := deviceimage.WriteImage(outPath, artifacts); err != nil {
				return err
			}

			fmt.Printf("wrote %s (%s)\n", outPath, deviceimage.Fingerprint(artifacts))

			if c.Bool("xz") {
				if err := deviceimage.PackageXZ(outPath, outPath+".xz"); err != nil {
					return err
				}
				fmt.Printf("wrote %s.xz\n", outPath)
			}
			return nil
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "render a table of per-channel encode counters from a running serve instance",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "http://127.0.0.1:20091"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rows, err := fetchStatus(c.String("addr"))
			if err != nil {
				return err
			}
			fmt.Println(renderStatusTable(rows))
			return nil
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "keep an issuer daemon running with a status-only admin API (/healthz, /status)",
		ArgsUsage: "secrets.json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: ":20091"},
			&cli.StringFlag{Name: "log-file", Usage: "rotate logs to this path instead of stderr"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			args := c.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("expected secrets.json, got %d args", len(args))
			}

			logger := newServeLogger(c.String("log-file"))

			bundle, err := loadBundle(args[0])
			if err != nil {
				return err
			}

			wd := issuerd.NewWatchdog()
			health := issuerd.NewHealth(0)

			encoders := make(map[uint32]*frame.Encoder, len(bundle.Channels))
			counts := make(map[uint32]*issuerd.ChannelStatus, len(bundle.Channels))
			chn := chain.New()
			for _, ch := range bundle.Channels {
				roots, err := bundle.ChannelRoots(ch)
				if err != nil {
					return err
				}
				encoders[ch] = frame.NewEncoder(chn, ch, roots.Forward, roots.Backward, bundle.Private)
				counts[ch] = &issuerd.ChannelStatus{Channel: ch}
			}

			app := issuerd.NewServer(health, func() []issuerd.ChannelStatus {
				out := make([]issuerd.ChannelStatus, 0, len(counts))
				for _, ch := range bundle.Channels {
					out = append(out, *counts[ch])
				}
				return out
			})

			if err := wd.Ready(); err != nil {
				logger.Warn("satcore serve: watchdog ready notification failed", "err", err)
			}
			stopPinger := wd.StartPinger(ctx)
			defer stopPinger()
			defer wd.Stopping()

			_ = encoders // wired for future interactive encode-over-admin-API use
			return app.Listen(c.String("listen"))
		},
	}
}

// demoCmd runs the full C5->C3->C4->C6->C7 pipeline in-process over an
// internal/link pipe, a concrete stand-in for the system-level integration
// test §8 describes in prose.
func demoCmd() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "run gen-secrets -> gen-subscription -> encode-frame -> decode end to end in memory",
		Action: func(ctx context.Context, c *cli.Command) error {
			bundle, err := secrets.Generate([]uint32{1})
			if err != nil {
				return err
			}

			chn := chain.New()
			roots, err := bundle.ChannelRoots(1)
			if err != nil {
				return err
			}
			sub, err := subscription.Build(chn, 1, 0, 10000, roots.Forward, roots.Backward, bundle.SystemSecret, 7)
			if err != nil {
				return err
			}

			emergencyRoots, err := bundle.ChannelRoots(0)
			if err != nil {
				return err
			}
			emergency, err := subscription.Build(chn, 0, 0, frame.EndOfTime, emergencyRoots.Forward, emergencyRoots.Backward, bundle.SystemSecret, 7)
			if err != nil {
				return err
			}

			dec, err := decodersim.New(chn, bundle.Public, bundle.SystemSecret, 7, emergency, slog.Default())
			if err != nil {
				return err
			}

			clientConn, serverConn := net.Pipe()
			defer clientConn.Close()
			defer serverConn.Close()

			recvCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			decoded := make(chan []byte, 1)
			recv := link.NewReceiver(serverConn, func(t link.PayloadType, payload []byte) {
				dec.HandleLinkMessage(t, payload, func(f []byte) { decoded <- f })
			}, nil)
			go recv.Run(recvCtx)

			sender := link.NewSender(clientConn)
			if err := sender.SendSubscription(sub); err != nil {
				return err
			}

			enc := frame.NewEncoder(chn, 1, roots.Forward, roots.Backward, bundle.Private)
			raw, err := enc.Encode([]byte("demo payload"), 500)
			if err != nil {
				return err
			}
			if err := sender.SendFrame(raw); err != nil {
				return err
			}

			select {
			case plain := <-decoded:
				fmt.Printf("decoded: %q\n", frame.TrimTrailingZeros(plain))
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	}
}

func loadBundle(path string) (*secrets.Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	passphrase, err := obtainPassphrase("secrets passphrase")
	if err != nil {
		return nil, err
	}
	return secrets.Load(raw, passphrase)
}

func fetchStatus(addr string) ([]issuerd.ChannelStatus, error) {
	resp, err := httpGet(addr + "/status")
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	var body struct {
		Channels []issuerd.ChannelStatus `json:"channels"`
	}
	if err := json.NewDecoder(resp).Decode(&body); err != nil {
		return nil, err
	}
	return body.Channels, nil
}

func parseChannels(args []string) ([]uint32, error) {
	out := make([]uint32, 0, len(args))
	for _, a := range args {
		v, err := parseUint32(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad uint32 %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseUint64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad uint64 %q: %w", s, err)
	}
	return v, nil
}
