package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-to-lesson/internal/ai"
	"github.com/thywilljoshua/pdf-to-lesson/internal/catalog"
	"github.com/thywilljoshua/pdf-to-lesson/internal/config"
)

type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *slog.Logger
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// enricher builds the configured provider. provider and model override the
// config file when set.
func (a *app) enricher(ctx context.Context, provider, model string) (ai.Enricher, error) {
	c := *a.cfg
	if provider != "" {
		c.AI.Provider = provider
		c.AI.APIKey = ""
		if a.cfg.Provider() == c.Provider() {
			c.AI.APIKey = a.cfg.AI.APIKey
		}
		c.ApplyEnv()
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	if model != "" {
		c.AI.Model = model
	}
	switch c.Provider() {
	case "gemini":
		return ai.NewGemini(ctx, c.AI.APIKey, c.AI.Model)
	case "openai":
		return ai.NewOpenAI(c.AI.APIKey, c.AI.Model, c.AI.BaseURL)
	}
	return nil, nil
}

func (a *app) unit() *catalog.Unit {
	u := a.cfg.Catalog.Unit
	if u == nil {
		return nil
	}
	return &catalog.Unit{Number: u.Number, Title: u.Title, PageStart: u.PageStart, PageEnd: u.PageEnd}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
