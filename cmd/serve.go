package cmd

import (
	"time"

	"github.com/m72elite/m72/internal/server"
	"github.com/m72elite/m72/pkg/syncer"
	"github.com/m72elite/m72/pkg/whttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const pushTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tracker as a JSON API",
	Long: `Serve the tracker as a JSON API on --listen. The server holds the
database lock while it runs, so other m72 commands that write will wait.
Set server.username and server.password in the config file to require basic
auth.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		proxy, _ := cmd.Flags().GetString("proxy")

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		client, err := whttp.NewClient(proxy, pushTimeout)
		if err != nil {
			return err
		}

		srv := server.New(sess.store, sess.db, syncer.New(client),
			viper.GetString("server.username"), viper.GetString("server.password"))
		srv.TargetWeight = viper.GetFloat64("goal.targetweight")
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "127.0.0.1:7272", "HTTP listen address")
}
