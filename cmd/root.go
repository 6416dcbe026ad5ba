package cmd

import (
	"context"
	u "net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tubegrab/tubegrab/internal/output"
	"github.com/tubegrab/tubegrab/internal/scheduler"
	"github.com/tubegrab/tubegrab/internal/utils"
)

var (
	outputPath    string
	streamID      string
	lengthHint    uint64
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	workers       int
	debug         bool
)

var TubegrabVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "tubegrab [URL]",
	Short:   "Tubegrab downloads a media stream from an already signed URL",
	Version: TubegrabVersion,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			output.PrintError("No URL provided")
			cmd.Usage()
			os.Exit(1)
		}
		job := utils.StreamJob{
			URL:              args[0],
			StreamID:         streamID,
			OutputPath:       outputPath,
			LengthHint:       lengthHint,
			HTTPClientConfig: globalHTTPConfig(),
		}
		if err := scheduler.Run(context.Background(), []utils.StreamJob{job}, 1); err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
	},
}

func globalHTTPConfig() utils.HTTPClientConfig {
	if userAgent == "randomize" {
		userAgent = utils.GetRandomUserAgent()
	}
	// Proxy URLs may carry their auth inline; split it out so the transport
	// config stays uniform.
	parsedProxy, err := u.Parse(proxyURL)
	if err == nil && parsedProxy.User != nil && proxyUsername == "" {
		proxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPassword = password
		}
		parsedProxy.User = nil
		proxyURL = parsedProxy.String()
	}
	return utils.HTTPClientConfig{
		Timeout:       timeout,
		KATimeout:     kaTimeout,
		ProxyURL:      proxyURL,
		ProxyUsername: proxyUsername,
		ProxyPassword: proxyPassword,
		UserAgent:     userAgent,
		Headers:       utils.ParseHeaderArgs(headers),
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Request timeout (0 = unbounded)")
	rootCmd.PersistentFlags().DurationVar(&kaTimeout, "keep-alive", 60*time.Second, "Keep-alive timeout for idle connections")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "", "Custom User-Agent ('randomize' picks one)")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "HTTP/HTTPS proxy URL")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", nil, "Custom header in 'Key: Value' form (repeatable)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 2, "Concurrent downloads for batch mode")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	rootCmd.Flags().StringVar(&streamID, "id", "stream", "Stream identifier used for the default output name")
	rootCmd.Flags().Uint64Var(&lengthHint, "size-hint", 0, "Known content length in bytes (0 = resolve via HEAD)")

	rootCmd.AddCommand(newBatchCmd())
}
