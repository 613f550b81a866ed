package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/paginate"
)

func newQueryCmd(opts *options) *cobra.Command {
	var (
		status   string
		pageSize int
		joined   bool
	)
	cmd := &cobra.Command{
		Use:   "query QUERY...",
		Short: "Print the top documents for each query",
		Long: `Each query is a space-separated list of words; a leading '-' excludes
documents containing the word. With --joined all queries run concurrently
against ACTIVE documents and their results print as one list.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := index.ParseStatus(status)
			if err != nil {
				return err
			}
			mode, err := opts.executionMode()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("page-size") {
				pageSize = opts.cfg.Search.PageSize
			}
			svc, err := opts.loadService(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if joined {
				docs, err := svc.SearchBatchJoined(cmd.Context(), args)
				if err != nil {
					return err
				}
				printPages(out, docs, pageSize)
				return nil
			}
			for _, q := range args {
				res, err := svc.Search(cmd.Context(), service.SearchRequest{Query: q, Status: st, Mode: mode})
				if err != nil {
					return fmt.Errorf("query %q: %w", q, err)
				}
				fmt.Fprintf(out, "Results for %q:\n", q)
				printPages(out, res.Results, pageSize)
			}
			stats := svc.Stats()
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d queries returned nothing\n", stats.NoResultRequests, stats.WindowRequests)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", index.StatusActive.String(), "only documents with this status")
	cmd.Flags().IntVar(&pageSize, "page-size", 2, "results per printed page (0 for one page)")
	cmd.Flags().BoolVar(&joined, "joined", false, "run all queries as one batch and join the results")
	return cmd
}

func printPages(w io.Writer, docs []ranker.ScoredDoc, pageSize int) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "  no documents")
		return
	}
	for i, page := range paginate.Paginate(docs, pageSize) {
		fmt.Fprintf(w, "  Page %d:\n", i+1)
		for _, d := range page {
			fmt.Fprintf(w, "    %s\n", d)
		}
	}
}

func newMatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match ID QUERY",
		Short: "Print the query's words found in one document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[0])
			}
			mode, err := opts.executionMode()
			if err != nil {
				return err
			}
			svc, err := opts.loadService(cmd)
			if err != nil {
				return err
			}
			res, err := svc.MatchDocument(cmd.Context(), args[1], id, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "{ document_id = %d, status = %s, words = %v }\n", id, res.Status, res.Terms)
			return nil
		},
	}
}

func newDedupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dedup",
		Short: "Remove documents whose word sets repeat an earlier document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := opts.executionMode()
			if err != nil {
				return err
			}
			svc, err := opts.loadService(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Before duplicates removed: %d\n", svc.DocumentCount())
			for _, id := range svc.Deduplicate(cmd.Context(), mode) {
				fmt.Fprintf(out, "Found duplicate document id %d\n", id)
			}
			fmt.Fprintf(out, "After duplicates removed: %d\n", svc.DocumentCount())
			return nil
		},
	}
}
