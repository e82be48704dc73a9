package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/mq"
)

func newTriggerCommand(rt *runtime) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "trigger RESOURCE",
		Short: "Ask running watch instances to re-list fish, tank_statistics or heartbeat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.RabbitMQ.URL == "" {
				return errors.New("RABBITMQ_URL is required to send sync triggers")
			}

			conn, err := mq.Dial(rt.cfg.RabbitMQ.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			publisher, err := mq.NewPublisher(conn, rt.cfg.RabbitMQ.SyncExchange, rt.logger)
			if err != nil {
				return err
			}
			defer publisher.Close()

			for i := 0; i < count; i++ {
				req := mq.SyncRequest{
					RequestID:   uuid.NewString(),
					Resource:    args[0],
					RequestedAt: time.Now().UTC(),
				}
				if err := publisher.PublishSyncRequest(cmd.Context(), rt.cfg.RabbitMQ.SyncRoutingKey, req); err != nil {
					return err
				}
				rt.logger.Debug("sync trigger sent", zap.String("request_id", req.RequestID))
				fmt.Fprintf(rt.out, "sent sync request %s for %s\n", req.RequestID, req.Resource)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of requests to send")
	return cmd
}
