package main

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	types "github.com/mutablelogic/go-server/pkg/types"
	httpclient "github.com/mutablelogic/go-uploader/pkg/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Client builds an upload API client from the global HTTP flags.
func (g *Globals) Client() (*httpclient.Client, error) {
	endpoint, err := g.clientEndpoint()
	if err != nil {
		return nil, err
	}
	opts := []client.ClientOpt{}
	if g.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, false))
	}
	if g.HTTP.Timeout > 0 {
		opts = append(opts, client.OptTimeout(g.HTTP.Timeout))
	}
	return httpclient.New(endpoint, opts...)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// clientEndpoint returns the API base URL. The address may be a URL, or a
// host and port which are reached over https on port 443 and http otherwise.
func (g *Globals) clientEndpoint() (string, error) {
	if strings.Contains(g.HTTP.Addr, "://") {
		endpoint, err := url.Parse(g.HTTP.Addr)
		if err != nil {
			return "", err
		}
		endpoint.Path = types.NormalisePath(g.HTTP.Prefix)
		return endpoint.String(), nil
	}
	host, port, err := net.SplitHostPort(g.HTTP.Addr)
	if err != nil {
		return "", err
	}
	if host == "" {
		host = "localhost"
	}
	portn, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return "", err
	}
	endpoint := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.FormatUint(portn, 10)),
		Path:   types.NormalisePath(g.HTTP.Prefix),
	}
	if portn == 443 {
		endpoint.Scheme = "https"
	}
	return endpoint.String(), nil
}
