package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Cors     Cors     `koanf:"cors"`
	Session  Session  `koanf:"session"`
	Database Database `koanf:"db"`
	Google   Google   `koanf:"google"`
	Gemini   Gemini   `koanf:"gemini"`
}

type Cors struct {
	AllowedOrigins []string `koanf:"allowedorigins"`
}

type Session struct {
	// Storage selects the session repository backend: "memory" or "postgres".
	Storage         string        `koanf:"storage"`
	TTL             time.Duration `koanf:"ttl"`
	DefaultTimezone string        `koanf:"defaulttimezone"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Google struct {
	ClientId              string `koanf:"clientid"`
	ClientSecret          string `koanf:"clientsecret"`
	RedirectUrl           string `koanf:"redirecturl"`
	CalendarId            string `koanf:"calendarid"`
	AttendeeEmail         string `koanf:"attendeeemail"`
	ServiceAccountFile    string `koanf:"serviceaccountfile"`
	ServiceAccountJson    string `koanf:"serviceaccountjson"`
	ServiceAccountJsonB64 string `koanf:"serviceaccountjsonb64"`
}

type Gemini struct {
	ApiKey string `koanf:"apikey"`
	Model  string `koanf:"model"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:8080",
		Cors: Cors{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"},
		},
		Session: Session{
			Storage:         "memory",
			TTL:             24 * time.Hour,
			DefaultTimezone: "America/New_York",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "voxcal",
			Pass:   "",
			Name:   "voxcal",
			Schema: "voxcal",
		},
		Google: Google{
			CalendarId:         "primary",
			ServiceAccountFile: "service_account.json",
		},
		Gemini: Gemini{
			Model: "gemini-2.0-flash",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "VOXCAL_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "VOXCAL_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	// The consent popup lands back on this service unless a deployment
	// overrides the redirect explicitly.
	if app.Google.RedirectUrl == "" {
		app.Google.RedirectUrl = strings.TrimRight(app.Host, "/") + "/oauth/callback"
	}

	return app, nil
}
