package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cursos "github.com/MrEthical07/cursos"
)

const envPrefix = "CURSOS"

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "cursos",
		Short:         "Session-gated course catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (YAML); CURSOS_* environment variables override it")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	load := func() (cursos.Config, error) {
		return loadConfig(v, v.GetString("config"))
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newUserCmd(load),
		newCourseCmd(load),
	)
	return root
}

// loadConfig layers, lowest first: DefaultConfig, the optional file at path, and
// CURSOS_* environment variables (CURSOS_SESSION_SECRET for session.secret).
func loadConfig(v *viper.Viper, path string) (cursos.Config, error) {
	cfg := cursos.DefaultConfig()
	setDefaults(v, "", reflect.ValueOf(cfg))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			setDefaults(v, key, val.Field(i))
			continue
		}
		v.SetDefault(key, val.Field(i).Interface())
	}
}
