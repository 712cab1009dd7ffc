package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"i4.energy/across/espwifi/esp"
	"i4.energy/across/espwifi/wifidb"
)

// defaultMaxNetworks bounds a scan when the request does not say otherwise.
const defaultMaxNetworks = 20

// Server handles incoming HTTP requests for the WiFi module owned by Driver
type Server struct {
	Logger *slog.Logger
	Driver *Driver
	DB     *wifidb.DB
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /networks", s.handleNetworks)
	mux.HandleFunc("POST /connect", s.handleConnect)
	mux.HandleFunc("POST /disconnect", s.handleDisconnect)
	mux.HandleFunc("GET /netinfo", s.handleNetInfo)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// sendModuleError maps a command failure to a status code.
func (s *Server) sendModuleError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, esp.ErrWrongCommand):
		code = http.StatusConflict
	case errors.Is(err, esp.ErrCommandFailed):
		code = http.StatusBadGateway
	case errors.Is(err, esp.ErrBusy), errors.Is(err, esp.ErrCommandInFlight):
		code = http.StatusServiceUnavailable
	case errors.Is(err, esp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	s.sendError(w, err.Error(), code)
}

type statusResponse struct {
	Connected bool   `json:"connected"`
	GotIP     bool   `json:"got_ip"`
	State     string `json:"state"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	err := s.Driver.Do(r.Context(), func(ctx context.Context, c *esp.Client) error {
		resp = statusResponse{
			Connected: c.Connected(),
			GotIP:     c.GotIP(),
			State:     c.State().String(),
		}
		return nil
	})
	if err != nil {
		s.sendModuleError(w, err)
		return
	}
	s.sendJSON(w, resp, http.StatusOK)
}

type networkResponse struct {
	SSID       string `json:"ssid"`
	RSSI       int    `json:"rssi"`
	Encryption string `json:"encryption"`
	BSSID      string `json:"bssid,omitempty"`
	Channel    int    `json:"channel,omitempty"`
}

// handleNetworks scans for access points. The optional max query parameter
// limits the number of entries.
func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	maxCount := defaultMaxNetworks
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.sendError(w, "'max' must be a non-negative integer", http.StatusBadRequest)
			return
		}
		maxCount = n
	}

	resp := []networkResponse{}
	err := s.Driver.Do(r.Context(), func(ctx context.Context, c *esp.Client) error {
		if err := Run(ctx, s.Logger, c, c.ScanNetworks); err != nil {
			return err
		}
		nets, err := c.GetNetworks(maxCount)
		if err != nil {
			return err
		}
		defer esp.ReleaseNetworks(nets)

		for _, n := range nets {
			resp = append(resp, networkResponse{
				SSID:       n.SSID,
				RSSI:       n.RSSI,
				Encryption: n.Mode.String(),
				BSSID:      n.BSSID,
				Channel:    n.Channel,
			})
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("Scan failed", "error", err)
		s.sendModuleError(w, err)
		return
	}
	s.sendJSON(w, resp, http.StatusOK)
}

// handleConnect joins an access point and saves its credentials for the
// next start.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	type ConnectRequest struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.SSID == "" {
		s.sendError(w, "'ssid' field is required", http.StatusBadRequest)
		return
	}

	var resp statusResponse
	err := s.Driver.Do(r.Context(), func(ctx context.Context, c *esp.Client) error {
		err := Run(ctx, s.Logger, c, func() error { return c.Connect(req.SSID, req.Password) })
		resp = statusResponse{
			Connected: c.Connected(),
			GotIP:     c.GotIP(),
			State:     c.State().String(),
		}
		return err
	})
	if err != nil {
		s.Logger.Error("Failed to join access point", "error", err, "ssid", req.SSID)
		s.sendModuleError(w, err)
		return
	}

	if err := s.DB.SetCredentials(wifidb.Credentials{SSID: req.SSID, Password: req.Password}); err != nil {
		s.Logger.Error("Failed to save credentials", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Joined access point", "ssid", req.SSID, "state", resp.State)
	s.sendJSON(w, resp, http.StatusOK)
}

// handleDisconnect leaves the access point and forgets its credentials.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	err := s.Driver.Do(r.Context(), func(ctx context.Context, c *esp.Client) error {
		return Run(ctx, s.Logger, c, c.Disconnect)
	})
	if err != nil {
		s.sendModuleError(w, err)
		return
	}

	if err := s.DB.ClearCredentials(); err != nil {
		s.Logger.Error("Failed to clear credentials", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Left access point")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleNetInfo(w http.ResponseWriter, r *http.Request) {
	type NetInfoResponse struct {
		StationIP  string `json:"station_ip,omitempty"`
		StationMAC string `json:"station_mac,omitempty"`
		APIP       string `json:"ap_ip,omitempty"`
		APMAC      string `json:"ap_mac,omitempty"`
	}

	var resp NetInfoResponse
	err := s.Driver.Do(r.Context(), func(ctx context.Context, c *esp.Client) error {
		if err := Run(ctx, s.Logger, c, c.LocalNetInfo); err != nil {
			return err
		}
		info, err := c.NetInfo()
		if err != nil {
			return err
		}
		if info.StationIP != nil {
			resp.StationIP = info.StationIP.String()
		}
		if info.APIP != nil {
			resp.APIP = info.APIP.String()
		}
		resp.StationMAC = info.StationMAC.String()
		resp.APMAC = info.APMAC.String()
		return nil
	})
	if err != nil {
		s.sendModuleError(w, err)
		return
	}
	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	var lines []string
	err := s.Driver.Do(r.Context(), func(ctx context.Context, c *esp.Client) error {
		if err := Run(ctx, s.Logger, c, c.Version); err != nil {
			return err
		}
		var err error
		lines, err = c.VersionLines()
		return err
	})
	if err != nil {
		s.sendModuleError(w, err)
		return
	}
	s.sendJSON(w, map[string][]string{"version": lines}, http.StatusOK)
}
