package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/Chan-con/chat-assistant/internal/brain"
	"github.com/Chan-con/chat-assistant/internal/logging"
	"github.com/Chan-con/chat-assistant/internal/model"
	"github.com/Chan-con/chat-assistant/internal/prompt"
	"github.com/Chan-con/chat-assistant/internal/store"
	"github.com/Chan-con/chat-assistant/internal/sys"
	"github.com/Chan-con/chat-assistant/internal/vault"
)

const (
	serviceName       = "chatassist"
	databaseFile      = "chatassist.db"
	assistantStateKey = "assistant"
)

// assistantState remembers the hosted assistant so it is not recreated on every run.
type assistantState struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// app bundles everything a command needs: config, logs, secrets and the local database.
type app struct {
	cm    *sys.ConfigManager
	cfg   *sys.Config
	vault *vault.Vault
	store *store.Store

	logs io.Closer
}

func openApp() (*app, error) {
	cm, err := sys.NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := cm.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logs, err := logging.Setup(cm.DataDir(), level)
	if err != nil {
		return nil, err
	}

	v, err := vault.New(serviceName, cm.DataDir())
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("opening vault: %w", err)
	}

	st, err := store.Open(cm.GetDataPath(databaseFile))
	if err != nil {
		logs.Close()
		return nil, err
	}

	log.Debug().Str("provider", cfg.Model.Provider).Str("model", cfg.Model.Name).Msg("app opened")
	return &app{cm: cm, cfg: cfg, vault: v, store: st, logs: logs}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("closing store")
	}
	a.logs.Close()
}

// settings resolves the backend settings from config, the vault and the saved assistant.
func (a *app) settings() model.Settings {
	s := model.Settings{
		Provider:              a.cfg.Model.Provider,
		Model:                 a.cfg.Model.Name,
		Endpoint:              a.cfg.Model.Endpoint,
		AssistantName:         a.cfg.Assistant.Name,
		AssistantInstructions: a.cfg.Assistant.Instructions,
		PollInterval:          a.cfg.Session.PollInterval,
	}

	switch s.Provider {
	case "", "assistants", "openai":
		s.APIKey = a.secret(vault.KeyOpenAI)
	case "github-models":
		s.Token = a.secret(vault.KeyGithubModels)
	case "ollama":
		if s.Endpoint == "" {
			s.Endpoint = a.secret(vault.KeyOllama)
		}
	}

	if s.Provider == "" || s.Provider == "assistants" {
		var st assistantState
		if err := a.store.LoadState(assistantStateKey, &st); err == nil && st.Model == s.Model {
			s.AssistantID = st.ID
		}
	}
	return s
}

func (a *app) secret(key string) string {
	v, err := a.vault.Get(key)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("reading secret")
	}
	return v
}

// newBrain builds the controller. Without credentials it still returns a usable brain
// whose sends fail with model.ErrMissingCredentials, alongside that error.
func (a *app) newBrain() (*brain.Brain, error) {
	backend, err := model.NewBackend(a.settings())
	if err != nil {
		backend = nil
	}
	b := brain.New(backend,
		brain.WithTimeout(a.cfg.Session.GenerateTimeout),
		brain.WithSystem(prompt.NewSystem(a.cfg)),
		brain.WithStore(a.store),
	)
	return b, err
}

// reconnect rebuilds the backend after a credential change and resets the session.
func (a *app) reconnect(b *brain.Brain) error {
	a.forgetAssistant()
	backend, err := model.NewBackend(a.settings())
	if err != nil {
		backend = nil
	}
	b.ResetCredentials(backend)
	return err
}

func (a *app) rememberAssistant(b *brain.Brain) {
	id := b.Session().AssistantID()
	if id == "" {
		return
	}
	st := assistantState{ID: id, Provider: a.cfg.Model.Provider, Model: a.cfg.Model.Name}
	if err := a.store.SaveState(assistantStateKey, st); err != nil {
		log.Warn().Err(err).Msg("saving assistant state")
	}
}

func (a *app) forgetAssistant() {
	if err := a.store.ClearState(assistantStateKey); err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Warn().Err(err).Msg("clearing assistant state")
	}
}

func isMissingCredentials(err error) bool {
	return errors.Is(err, model.ErrMissingCredentials)
}
