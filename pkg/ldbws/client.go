package ldbws

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const (
	defaultEndpoint = "https://lite.realtime.nationalrail.co.uk/OpenLDBWS/ldb11.asmx"
	soapAction      = "http://thalesgroup.com/RTTI/2012-01-13/ldb/GetDepartureBoard"
)

// Config configures the National Rail live departure board client.
type Config struct {
	Endpoint string
	// Token is the OpenLDBWS access token. Required.
	Token      string
	HTTPClient *http.Client
	// Rows caps the number of services requested per board. Defaults to 10.
	Rows int
}

// Client reads live departure boards from the OpenLDBWS SOAP service. It
// implements tiles.DepartureSource. Returning tiles.ErrNotConnected when no
// token is configured lets the tile render a setup prompt.
type Client struct {
	endpoint string
	token    string
	rows     int
	client   *http.Client
}

// New builds an OpenLDBWS client.
func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	rows := cfg.Rows
	if rows <= 0 {
		rows = 10
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: endpoint, token: cfg.Token, rows: rows, client: httpClient}
}

type boardEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Result struct {
				LocationName string `xml:"locationName"`
				Services     []struct {
					Scheduled   string `xml:"std"`
					Expected    string `xml:"etd"`
					Platform    string `xml:"platform"`
					Destination struct {
						Locations []struct {
							Name string `xml:"locationName"`
						} `xml:"location"`
					} `xml:"destination"`
				} `xml:"trainServices>service"`
			} `xml:"GetStationBoardResult"`
		} `xml:"GetDepartureBoardResponse"`
	} `xml:"Body"`
}

// Departures implements tiles.DepartureSource. Station codes are CRS codes;
// a non-empty destination filters the board to services calling there.
func (c *Client) Departures(ctx context.Context, station, destination string) (tiles.DepartureBoardResult, error) {
	if c.token == "" {
		return tiles.DepartureBoardResult{}, tiles.ErrNotConnected
	}
	station = strings.ToUpper(strings.TrimSpace(station))
	destination = strings.ToUpper(strings.TrimSpace(destination))
	if len(station) != 3 {
		return tiles.DepartureBoardResult{}, &tiles.ValidationError{Field: "station", Reason: "three-letter CRS code required"}
	}

	body := buildRequest(c.token, station, destination, c.rows)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return tiles.DepartureBoardResult{}, fmt.Errorf("ldbws: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.client.Do(req)
	if err != nil {
		return tiles.DepartureBoardResult{}, &tiles.NetworkError{TileType: tiles.TypeTrains, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return tiles.DepartureBoardResult{}, &tiles.UpstreamError{
			TileType: tiles.TypeTrains,
			Status:   resp.StatusCode,
			Message:  buf.String(),
		}
	}

	var envelope boardEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return tiles.DepartureBoardResult{}, &tiles.UpstreamError{
			TileType: tiles.TypeTrains,
			Message:  fmt.Sprintf("decode board: %v", err),
		}
	}

	result := tiles.DepartureBoardResult{
		Origin:      envelope.Body.Response.Result.LocationName,
		Destination: destination,
	}
	for _, svc := range envelope.Body.Response.Result.Services {
		dest := ""
		if len(svc.Destination.Locations) > 0 {
			dest = svc.Destination.Locations[0].Name
		}
		result.Departures = append(result.Departures, tiles.Departure{
			ScheduledDisplay: svc.Scheduled,
			ExpectedDisplay:  svc.Expected,
			Destination:      dest,
			Platform:         svc.Platform,
		})
	}
	return result, nil
}

func buildRequest(token, station, destination string, rows int) string {
	var filter string
	if destination != "" {
		filter = fmt.Sprintf("<ldb:filterCrs>%s</ldb:filterCrs><ldb:filterType>to</ldb:filterType>", destination)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
               xmlns:typ="http://thalesgroup.com/RTTI/2013-11-28/Token/types"
               xmlns:ldb="http://thalesgroup.com/RTTI/2021-11-01/ldb/">
  <soap:Header>
    <typ:AccessToken><typ:TokenValue>%s</typ:TokenValue></typ:AccessToken>
  </soap:Header>
  <soap:Body>
    <ldb:GetDepartureBoardRequest>
      <ldb:numRows>%d</ldb:numRows>
      <ldb:crs>%s</ldb:crs>%s
    </ldb:GetDepartureBoardRequest>
  </soap:Body>
</soap:Envelope>`, token, rows, station, filter)
}
