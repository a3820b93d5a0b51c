package main

import (
	"github.com/riskibarqy/clash-tables/internal/config"
	"github.com/spf13/pflag"
)

type flags struct {
	email         string
	password      string
	token         string
	connectionStr string
	accountName   string
	accessKey     string
	output        string
	verbosity     int
	settings      string
	backend       string
	envFile       string
}

func parseFlags(args []string) (flags, *pflag.FlagSet, error) {
	var f flags
	fs := pflag.NewFlagSet("scraper", pflag.ContinueOnError)
	fs.StringVarP(&f.email, "email", "e", "", "Email account to access the Clash of Clans API")
	fs.StringVarP(&f.password, "password", "p", "", "Password to access the Clash of Clans API")
	fs.StringVarP(&f.token, "token", "", "", "Static Clash of Clans API token, used instead of email/password")
	fs.StringVarP(&f.connectionStr, "connection_str", "c", "", "Table store connection string")
	fs.StringVarP(&f.accountName, "account_name", "", "", "Table store account name")
	fs.StringVarP(&f.accessKey, "access_key", "", "", "Table store access key")
	fs.StringVarP(&f.output, "output", "o", "", "Dataset output directory for the memory backend")
	fs.IntVarP(&f.verbosity, "verbosity", "v", 0, "Output verbosity: 0 warn, 1 info, 2 debug")
	fs.StringVarP(&f.settings, "settings", "", "", "Path to the YAML settings file")
	fs.StringVarP(&f.backend, "backend", "", "", "Table backend: dynamo, postgres or memory")
	fs.StringVarP(&f.envFile, "env-file", "", ".env", "Path to a .env file")
	if err := fs.Parse(args); err != nil {
		return flags{}, fs, err
	}
	return f, fs, nil
}

// apply overrides cfg with every flag the user set explicitly.
func (f flags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, dst *string, value string) {
		if fs.Changed(name) {
			*dst = value
		}
	}
	set("email", &cfg.ClashEmail, f.email)
	set("password", &cfg.ClashPassword, f.password)
	set("token", &cfg.ClashToken, f.token)
	set("connection_str", &cfg.TableConnection, f.connectionStr)
	set("account_name", &cfg.TableAccountName, f.accountName)
	set("access_key", &cfg.TableAccessKey, f.accessKey)
	set("output", &cfg.OutputDir, f.output)
	set("settings", &cfg.SettingsPath, f.settings)
	set("backend", &cfg.Backend, f.backend)
}
