package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/idrive-online-backup/swift-s3-gw/api/auth"
	"github.com/idrive-online-backup/swift-s3-gw/internal/version"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	devNull = empty(0)

	defaultShutdownTimeout = 15 * time.Second

	defaultMaxClientsCount    = 100
	defaultMaxClientsDeadline = time.Second * 30
)

const ( // Settings.
	// Logger.
	cfgLoggerLevel = "logger.level"

	// HTTPS/TLS.
	cfgTLSKeyFile  = "tls.key_file"
	cfgTLSCertFile = "tls.cert_file"

	// MaxClients.
	cfgMaxClientsCount    = "max_clients_count"
	cfgMaxClientsDeadline = "max_clients_deadline"

	// Metrics / Profiler / Web.
	cfgEnableMetrics  = "metrics"
	cfgEnableProfiler = "pprof"
	cfgListenAddress  = "listen_address"
	cfgListenDomains  = "listen_domains"

	// Access control.
	cfgACLEnforced  = "s3.acl_enforced"
	cfgAllowNoOwner = "s3.allow_no_owner"
	cfgRegion       = "s3.region"

	// Accounts.
	cfgAccounts = "accounts"

	// Application.
	cfgApplicationName      = "app.name"
	cfgApplicationVersion   = "app.version"
	cfgApplicationBuildTime = "app.build_time"

	// Command line args.
	cmdHelp    = "help"
	cmdVersion = "version"

	// applicationName is gateway name.
	applicationName = "swift-s3-gw"

	// envPrefix is environment variables prefix used for configuration.
	envPrefix = "S3_GW"
)

type empty int

var ignore = map[string]struct{}{
	cfgApplicationName:      {},
	cfgApplicationVersion:   {},
	cfgApplicationBuildTime: {},

	cfgAccounts: {},

	cmdHelp:    {},
	cmdVersion: {},
}

func (empty) Read([]byte) (int, error) { return 0, io.EOF }

// fetchAccounts reads the account list from the configuration. Every
// account needs an access key, a secret key and a backing store user.
func fetchAccounts(l *zap.Logger, v *viper.Viper) []auth.Account {
	var accounts []auth.Account

	for i := 0; ; i++ {
		key := cfgAccounts + "." + strconv.Itoa(i) + "."
		accessKey := v.GetString(key + "access_key")
		if accessKey == "" {
			break
		}

		acc := auth.Account{
			AccessKeyID: accessKey,
			SecretKey:   v.GetString(key + "secret_key"),
			UserID:      v.GetString(key + "user"),
			DisplayName: v.GetString(key + "display_name"),
		}
		if acc.SecretKey == "" || acc.UserID == "" {
			l.Warn("skip account with missing secret key or user",
				zap.String("access_key", accessKey))
			continue
		}
		accounts = append(accounts, acc)

		l.Info("added account",
			zap.String("access_key", acc.AccessKeyID),
			zap.String("user", acc.UserID))
	}

	if len(accounts) == 0 {
		l.Warn("no accounts configured, only anonymous requests will be served")
	}

	return accounts
}

func fetchDomains(v *viper.Viper) []string {
	cnt := v.GetInt(cfgListenDomains + ".count")
	res := make([]string, 0, cnt)
	for i := 0; ; i++ {
		domain := v.GetString(cfgListenDomains + "." + strconv.Itoa(i))
		if domain == "" {
			break
		}

		res = append(res, domain)
	}

	return res
}

func newSettings() *viper.Viper {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// flags setup:
	flags := pflag.NewFlagSet("commandline", pflag.ExitOnError)
	flags.SetOutput(os.Stdout)
	flags.SortFlags = false

	flags.Bool(cfgEnableProfiler, false, "enable pprof")
	flags.Bool(cfgEnableMetrics, false, "enable prometheus metrics")

	help := flags.BoolP(cmdHelp, "h", false, "show help")
	versionFlag := flags.BoolP(cmdVersion, "v", false, "show version")

	flags.Int(cfgMaxClientsCount, defaultMaxClientsCount, "set max-clients count")
	flags.Duration(cfgMaxClientsDeadline, defaultMaxClientsDeadline, "set max-clients deadline")

	flags.String(cfgListenAddress, "0.0.0.0:8080", "set address to listen")
	flags.String(cfgTLSCertFile, "", "TLS certificate file to use")
	flags.String(cfgTLSKeyFile, "", "TLS key file to use")

	flags.Bool(cfgACLEnforced, true, "enforce ACL and bucket policy checks")
	flags.Bool(cfgAllowNoOwner, false, "treat resources without an owner as public")
	flags.String(cfgRegion, "us-east-1", "region reported to clients")

	domains := flags.StringArrayP(cfgListenDomains, "d", nil, "set domains to be listened")

	// set prefers:
	v.Set(cfgApplicationName, applicationName)
	v.Set(cfgApplicationVersion, version.Version)

	// set defaults:

	// logger:
	v.SetDefault(cfgLoggerLevel, "debug")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	if err := v.ReadConfig(devNull); err != nil {
		panic(err)
	}

	if err := flags.Parse(os.Args); err != nil {
		panic(err)
	}

	if domains != nil && len(*domains) > 0 {
		for i := range *domains {
			v.SetDefault(cfgListenDomains+"."+strconv.Itoa(i), (*domains)[i])
		}

		v.SetDefault(cfgListenDomains+".count", len(*domains))
	}

	switch {
	case help != nil && *help:
		fmt.Printf("Swift S3 gateway %s\n", version.Version)
		flags.PrintDefaults()

		fmt.Println()
		fmt.Println("Default environments:")
		fmt.Println()
		keys := v.AllKeys()
		sort.Strings(keys)

		for i := range keys {
			if _, ok := ignore[keys[i]]; ok {
				continue
			}

			k := strings.Replace(keys[i], ".", "_", -1)
			fmt.Printf("%s_%s = %v\n", envPrefix, strings.ToUpper(k), v.Get(keys[i]))
		}

		fmt.Println()
		fmt.Println("Accounts preset:")
		fmt.Println()

		fmt.Printf("%s_%s_[N]_ACCESS_KEY = string\n", envPrefix, strings.ToUpper(cfgAccounts))
		fmt.Printf("%s_%s_[N]_SECRET_KEY = string\n", envPrefix, strings.ToUpper(cfgAccounts))
		fmt.Printf("%s_%s_[N]_USER = string\n", envPrefix, strings.ToUpper(cfgAccounts))

		os.Exit(0)
	case versionFlag != nil && *versionFlag:
		fmt.Printf("Swift S3 gateway %s\n", version.Version)
		os.Exit(0)
	}

	return v
}
