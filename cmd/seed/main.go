// seed 把 JSON 文件中的用户批量写入存储，整批成功或整批失败
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"user-management/internal/core/config"
	"user-management/internal/core/logger"
	"user-management/internal/domain"
	"user-management/internal/repo"
	"user-management/internal/service"
)

func main() {
	var (
		file    = pflag.StringP("file", "f", "", "JSON file: [{...}] or {\"users\":[...]}; - for stdin")
		cfgPath = pflag.StringP("config", "c", os.Getenv("CONFIG_PATH"), "config file")
		driver  = pflag.String("driver", "", "override db.driver")
		dryRun  = pflag.Bool("dry-run", false, "validate only, do not write")
		timeout = pflag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	pflag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(*cfgPath)
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	if *file == "" {
		pflag.Usage()
		os.Exit(2)
	}
	ins, err := readUsers(*file)
	if err != nil {
		log.Fatal("read users", zap.String("file", *file), zap.Error(err))
	}
	log.Info("users loaded", zap.Int("count", len(ins)))

	if *dryRun {
		for i, in := range ins {
			if _, err := in.Build(); err != nil {
				log.Error("invalid record", zap.Int("index", i), zap.Error(err))
				os.Exit(1)
			}
		}
		log.Info("dry run ok")
		return
	}

	if *driver != "" {
		cfg.DB.Driver = *driver
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, closeStore, err := repo.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("store open", zap.Error(err))
	}
	defer func() { _ = closeStore(context.Background()) }()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("ensure indexes", zap.Error(err))
	}

	out, err := service.NewUserService(store, service.WithLogger(log)).ImportAll(ctx, ins)
	if err != nil {
		log.Fatal("import failed, nothing written", zap.Error(err))
	}
	for _, u := range out {
		fmt.Printf("%s\t%s\t%s\n", u.ID, u.UniqueID, u.Email)
	}
	log.Info("import done", zap.Int("inserted", len(out)))
}

func readUsers(path string) ([]domain.UserInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return decodeUsers(r)
}

// decodeUsers 接受裸数组或 /addAll 的请求体格式
func decodeUsers(r io.Reader) ([]domain.UserInput, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var list []domain.UserInput
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Users []domain.UserInput `json:"users"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return wrapped.Users, nil
}
