package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"riskscan/internal/domain/entity"
	scanH "riskscan/internal/handler/http/scan"
)

func newScanCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan <entity>",
		Short: "Screen one entity for adverse media",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return a.withSession(cmd.Context(), func(s *session) error {
				result, err := s.scanner.Scan(cmd.Context(), query)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(scanH.NewResponse(result))
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func printResult(w io.Writer, r entity.ScanResult) {
	fmt.Fprintf(w, "Screening: %s\n\n", r.Query)
	if r.Advisory != "" {
		fmt.Fprintf(w, "! %s\n\n", r.Advisory)
	}
	fmt.Fprintf(w, "%s\n\n", r.Brief)

	fmt.Fprintf(w, "Clusters (%d, %d adverse)\n", len(r.Clusters), len(r.AdverseClusters()))
	for i, c := range r.Clusters {
		doc, v := c.Representative.Document, c.Representative.Verdict
		label := "clear"
		if v.IsAdverse {
			label = fmt.Sprintf("%s %d", v.Severity, v.RiskScore)
		}
		if v.ManualReview {
			label += ", manual review"
		}
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, label, doc.Title)
		meta := []string{doc.SourceName, doc.SourceDomain}
		if !doc.PublishedAt.IsZero() {
			meta = append(meta, doc.PublishedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(w, "    %s\n    %s\n", strings.Join(nonEmpty(meta), " · "), doc.URL())
		if len(v.RiskTypes) > 0 {
			fmt.Fprintf(w, "    risks: %s\n", strings.Join(v.RiskTypes, ", "))
		}
		if n := len(c.SecondarySources); n > 0 {
			fmt.Fprintf(w, "    + %d related source(s)\n", n)
		}
	}

	if len(r.RelatedEntities) > 0 {
		names := make([]string, 0, len(r.RelatedEntities))
		for _, e := range r.RelatedEntities {
			names = append(names, fmt.Sprintf("%s (%s)", e.Name, e.Role))
		}
		fmt.Fprintf(w, "\nRelated: %s\n", strings.Join(names, ", "))
	}
	if len(r.SocialSignals) > 0 {
		fmt.Fprintf(w, "\nSocial (%d)\n", len(r.SocialSignals))
		for _, s := range r.SocialSignals {
			fmt.Fprintf(w, "  [%s] %s: %s\n", s.Sentiment, s.Handle, s.Content)
		}
	}
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
