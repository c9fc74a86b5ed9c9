package client

import (
	"context"
	"net/http"

	"github.com/raynmakers/vigil/api"
	"github.com/raynmakers/vigil/scan"
)

// StartScan runs a stuck-record sweep on the server and returns its result.
// Zero-valued thresholds fall back to the server's configured defaults.
func (c *Client) StartScan(ctx context.Context, req api.ScanRequest) (*scan.Result, error) {
	var res scan.Result
	if err := c.do(ctx, http.MethodPost, "/v1/scans", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
