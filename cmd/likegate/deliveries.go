package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/likegate/internal/domain"
)

var serverURL string

var deliveriesCmd = &cobra.Command{
	Use:   "deliveries",
	Short: "Inspect the delivery ledger of a running bot",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		if status != "" {
			query.Set("status", status)
		}
		if limit > 0 {
			query.Set("limit", strconv.Itoa(limit))
		}
		endpoint := serverURL + "/api/v1/deliveries"
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var page struct {
			Deliveries []*domain.Delivery `json:"deliveries"`
		}
		if err := fetchJSON(endpoint, &page); err != nil {
			return err
		}
		return renderDeliveries(cmd.OutOrStdout(), page.Deliveries)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one delivery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var delivery domain.Delivery
		if err := fetchJSON(serverURL+"/api/v1/deliveries/"+url.PathEscape(args[0]), &delivery); err != nil {
			return err
		}
		renderDelivery(cmd.OutOrStdout(), &delivery)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show delivery statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats domain.DeliveryStats
		if err := fetchJSON(serverURL+"/api/v1/deliveries/stats", &stats); err != nil {
			return err
		}
		renderStats(cmd.OutOrStdout(), &stats)
		return nil
	},
}

func init() {
	deliveriesCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Operator API URL")
	listCmd.Flags().StringP("status", "s", "", "Filter by status (processing, completed, failed)")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of rows")

	deliveriesCmd.AddCommand(listCmd)
	deliveriesCmd.AddCommand(getCmd)
	deliveriesCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deliveriesCmd)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// fetchJSON GETs endpoint and decodes a 200 response into v
func fetchJSON(endpoint string, v interface{}) error {
	resp, err := httpClient.Get(endpoint)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func renderDeliveries(out io.Writer, deliveries []*domain.Delivery) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tLIKES\tTITLE\tCREATED")
	for _, d := range deliveries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(d.ID, 8),
			d.Kind,
			d.Status,
			domain.FormatCount(d.LikeCount),
			truncate(d.Title, 40),
			d.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func renderDelivery(out io.Writer, d *domain.Delivery) {
	fmt.Fprintf(out, "Delivery Details:\n")
	fmt.Fprintf(out, "  ID:      %s\n", d.ID)
	fmt.Fprintf(out, "  Session: %d\n", d.SessionID)
	fmt.Fprintf(out, "  Title:   %s\n", d.Title)
	fmt.Fprintf(out, "  URL:     %s\n", d.URL)
	fmt.Fprintf(out, "  Kind:    %s\n", d.Kind)
	fmt.Fprintf(out, "  Status:  %s\n", d.Status)
	fmt.Fprintf(out, "  Likes:   %s\n", domain.FormatCount(d.LikeCount))
	fmt.Fprintf(out, "  Created: %s\n", d.CreatedAt.Format(time.RFC3339))
	if d.FileName != "" {
		fmt.Fprintf(out, "  File:    %s\n", d.FileName)
	}
	if d.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:   %s\n", d.ErrorMessage)
	}
}

func renderStats(out io.Writer, stats *domain.DeliveryStats) {
	fmt.Fprintln(out, "Delivery Statistics:")
	fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
	fmt.Fprintf(out, "  Processing: %d\n", stats.Processing)
	fmt.Fprintf(out, "  Completed:  %d\n", stats.Completed)
	fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
	fmt.Fprintf(out, "  Video:      %d\n", stats.Video)
	fmt.Fprintf(out, "  Audio:      %d\n", stats.Audio)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
