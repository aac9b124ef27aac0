// ABOUTME: Credential and connection configuration for the messaging session.
// ABOUTME: Loads a YAML file through viper with per-field environment precedence.

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Credentials is the single configuration record the transport needs to
// establish a session. Every field is optional except AccountID; unset
// fields are omitted from Fields() rather than passed as empty values.
type Credentials struct {
	AccountID          string        `mapstructure:"accountId"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	Token              string        `mapstructure:"token"`
	UserID             string        `mapstructure:"userId"`
	Assertion          string        `mapstructure:"assertion"`
	AppKey             string        `mapstructure:"appKey"`
	Secret             string        `mapstructure:"secret"`
	AccessToken        string        `mapstructure:"accessToken"`
	AccessTokenSecret  string        `mapstructure:"accessTokenSecret"`
	CSDSDomain         string        `mapstructure:"csdsDomain"`
	RequestTimeout     time.Duration `mapstructure:"requestTimeout"`
	ErrorCheckInterval time.Duration `mapstructure:"errorCheckInterval"`
	APIVersion         string        `mapstructure:"apiVersion"`
}

// envBindings maps each recognized field to its environment variable.
// Environment values take precedence over file values field-by-field.
var envBindings = map[string]string{
	"accountId":          "LP_ACCOUNT_ID",
	"username":           "LP_USERNAME",
	"password":           "LP_PASSWORD",
	"token":              "LP_TOKEN",
	"userId":             "LP_USER_ID",
	"assertion":          "LP_ASSERTION",
	"appKey":             "LP_APP_KEY",
	"secret":             "LP_SECRET",
	"accessToken":        "LP_ACCESS_TOKEN",
	"accessTokenSecret":  "LP_ACCESS_TOKEN_SECRET",
	"csdsDomain":         "LP_CSDS_DOMAIN",
	"requestTimeout":     "LP_REQUEST_TIMEOUT",
	"errorCheckInterval": "LP_ERROR_CHECK_INTERVAL",
	"apiVersion":         "LP_API_VERSION",
}

// Load reads credentials from the YAML file at path, then overlays any
// environment variables. Path may be empty to configure from the
// environment alone; a missing file is only an error when the path was
// given explicitly and nothing else provides an account id.
func Load(path string) (*Credentials, error) {
	v := viper.New()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &creds, nil
}

// Validate checks that the record identifies an account.
func (c *Credentials) Validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("accountId is required (file field accountId or %s)", envBindings["accountId"])
	}
	return nil
}

// Fields returns the record as a map containing only the fields that
// are actually set. The transport receives this map verbatim, so unset
// fields must be absent rather than empty.
func (c *Credentials) Fields() map[string]any {
	fields := make(map[string]any)

	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("accountId", c.AccountID)
	set("username", c.Username)
	set("password", c.Password)
	set("token", c.Token)
	set("userId", c.UserID)
	set("assertion", c.Assertion)
	set("appKey", c.AppKey)
	set("secret", c.Secret)
	set("accessToken", c.AccessToken)
	set("accessTokenSecret", c.AccessTokenSecret)
	set("csdsDomain", c.CSDSDomain)
	set("apiVersion", c.APIVersion)

	if c.RequestTimeout > 0 {
		fields["requestTimeout"] = c.RequestTimeout
	}
	if c.ErrorCheckInterval > 0 {
		fields["errorCheckInterval"] = c.ErrorCheckInterval
	}

	return fields
}
