package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/adventure-world/internal/auth"
	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/logging"
	"github.com/annel0/adventure-world/internal/physics"
	"github.com/annel0/adventure-world/internal/terrain"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/annel0/adventure-world/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config (default: ENV WORLD_CONFIG)")
		seed       = flag.Int64("seed", 0, "override world seed")
		size       = flag.Float64("size", 0, "override initial terrain size")
		relief     = flag.String("relief", "", "relief field: value, perlin, simplex")
		hash       = flag.String("hash", "", "lattice hash: sine, xxhash")
		walk       = flag.Int("walk", 0, "simulate N player steps towards +X edge")
		step       = flag.Float64("step", 5, "player step length for -walk")
		pngPath    = flag.String("png", "", "write terrain texture PNG to file")
		hmPath     = flag.String("heightmap", "", "write compressed heightmap to file")
		hmEnc      = flag.String("heightmap-encoding", "gzip", "heightmap compression: gzip, zstd")
		verbose    = flag.Bool("v", false, "debug logging")
		adminJWT   = flag.Duration("admin-jwt", 0, "print admin JWT signed with server.admin_token, valid for duration, and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}

	if *adminJWT > 0 {
		token, err := auth.IssueAdminToken([]byte(cfg.Server.GetAdminToken()), "worldgen", *adminJWT)
		if err != nil {
			log.Fatalf("❌ Admin JWT: %v", err)
		}
		fmt.Println(token)
		return
	}

	var patch config.WorldPatch
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			patch.Seed = seed
		case "size":
			patch.TerrainSize = size
		}
	})
	cfg.World = cfg.World.Apply(patch)
	if *relief != "" {
		cfg.Noise.Relief = *relief
	}
	if *hash != "" {
		cfg.Noise.Hash = *hash
	}

	level := logging.WARN
	if *verbose {
		level = logging.DEBUG
	}
	logging.SetDefaultLevel(level)
	logging.GetLoggerManager().SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	headless := engine.NewHeadless()
	colliders := physics.NewColliders(headless, headless)
	manager, err := world.New(cfg.World, world.Options{
		Noise:    cfg.Noise,
		Renderer: headless,
		Physics:  colliders,
	})
	if err != nil {
		log.Fatalf("❌ World config: %v", err)
	}
	defer manager.Dispose()

	if err := manager.GenerateWorld(ctx); err != nil {
		log.Fatalf("❌ Generate: %v", err)
	}

	if *walk > 0 {
		if err := simulateWalk(ctx, manager, colliders, *walk, *step); err != nil {
			log.Fatalf("❌ Walk: %v", err)
		}
	}

	if *pngPath != "" {
		if err := writeFile(*pngPath, func(f *os.File) error {
			return terrain.WriteTexturePNG(f, manager.Surface().Texture)
		}); err != nil {
			log.Fatalf("❌ PNG: %v", err)
		}
	}
	if *hmPath != "" {
		if err := writeFile(*hmPath, func(f *os.File) error {
			enc, err := terrain.ParseEncoding(*hmEnc)
			if err != nil {
				return err
			}
			return terrain.WriteHeightmapEncoded(f, manager.Surface(), enc)
		}); err != nil {
			log.Fatalf("❌ Heightmap: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manager.WorldInfo()); err != nil {
		log.Fatalf("❌ Encode: %v", err)
	}
}

// playerCollider: габариты игрока для проверки проходимости
var playerCollider = physics.NewBoxCollider(0.6, 0.6, 1.8)

// simulateWalk двигает игрока к краю карты, как игровой цикл.
// Препятствия обходятся сдвигом по Z.
func simulateWalk(ctx context.Context, m *world.Manager, colliders *physics.Colliders, steps int, step float64) error {
	pos := vec.Vec3Float{}
	bumps := 0
	for i := 0; i < steps; i++ {
		next := pos
		next.X += step
		for try := 0; try < 4; try++ {
			next.Y = m.Surface().HeightAt(next.X, next.Z)
			contacts := colliders.Overlaps(next, playerCollider)
			if len(contacts) == 0 {
				break
			}
			bumps++
			fmt.Fprintf(os.Stderr, "step %d: blocked by %s, sidestep\n", i+1, contacts[0].Name)
			next.Z += step / 2
		}
		pos = next
		m.UpdatePlayerPosition(pos)

		if m.ExpansionPending() {
			if _, err := m.WaitExpansion(ctx); err != nil {
				return err
			}
		}
		if err := m.LastError(); err != nil {
			return err
		}

		if it, ok := m.NearestInteractable(pos, world.DefaultInteractRange); ok {
			fmt.Fprintf(os.Stderr, "step %d: %s nearby at (%.1f, %.1f)\n", i+1, it.Kind, it.Position.X, it.Position.Z)
		}
	}
	info := m.WorldInfo()
	fmt.Fprintf(os.Stderr, "walked to (%.1f, %.1f), %d bumps, world size %.0f, chunks %d\n",
		pos.X, pos.Z, bumps, info.CurrentSize, info.ChunkCount)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
