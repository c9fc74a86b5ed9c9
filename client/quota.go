package client

import (
	"context"
	"net/http"

	"github.com/raynmakers/vigil/api"
	"github.com/raynmakers/vigil/quota"
)

// QuotaReport runs a quota usage report on the server and returns it.
func (c *Client) QuotaReport(ctx context.Context, req api.QuotaReportRequest) (*quota.Report, error) {
	var report quota.Report
	if err := c.do(ctx, http.MethodPost, "/v1/quota/reports", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GuardState returns the spend brake state for one service. Services without
// a configured budget come back with Restricted false.
func (c *Client) GuardState(ctx context.Context, service string) (*api.GuardStateResponse, error) {
	var state api.GuardStateResponse
	if err := c.do(ctx, http.MethodGet, "/v1/quota/guard/"+service, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
