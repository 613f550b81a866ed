package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/paginate"
)

func newIngestCmd(opts *options) *cobra.Command {
	var (
		brokers   []string
		topic     string
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Publish the corpus as add events to the document-events topic",
		Long: `Reads the corpus given by --docs or --sqlite and publishes one add
event per document. Running search servers consuming the topic apply them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kcfg := opts.cfg.Kafka
			if len(brokers) > 0 {
				kcfg.Brokers = brokers
			}
			if topic == "" {
				topic = kcfg.Topics.DocumentEvents
			}
			events, skipped, err := readEvents(cmd.Context(), opts)
			if err != nil {
				return err
			}

			producer := kafka.NewProducer(kcfg, topic)
			defer producer.Close()
			pub := publisher.New(producer)

			batches := paginate.Paginate(events, batchSize)
			progress := opts.progress(cmd, "Publishing")
			sent := 0
			for _, batch := range batches {
				if err := pub.PublishBatch(cmd.Context(), batch); err != nil {
					return fmt.Errorf("after %d events: %w", sent, err)
				}
				sent += len(batch)
				if progress != nil {
					progress(sent, len(events))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d events to %s (%d skipped)\n", sent, topic, skipped)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&brokers, "brokers", nil, "Kafka brokers (defaults to config)")
	cmd.Flags().StringVar(&topic, "topic", "", "topic to publish to (defaults to config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "events per Kafka write")
	return cmd
}

// readEvents turns the corpus into add events. Records the source cannot
// decode are skipped and counted.
func readEvents(ctx context.Context, opts *options) ([]ingestion.DocumentEvent, int, error) {
	src, err := opts.openSource(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()

	var (
		events  []ingestion.DocumentEvent
		skipped int
	)
	for doc, err := range src.Documents(ctx) {
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidInput) {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		events = append(events, ingestion.AddEvent(doc))
	}
	return events, skipped, nil
}
