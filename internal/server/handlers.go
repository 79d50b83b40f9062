// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/skyglow/internal/darkspot"
	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/raster"
	"github.com/woozymasta/skyglow/internal/render"
	"github.com/woozymasta/skyglow/internal/service"
)

const etagCap = 64

type errorBody struct {
	Error string `json:"error"`
}

// HandleTile serves /api/lightmap/{z}/{x}/{y}[.png|.webp].
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	t, enc, ok := s.parseTile(r.PathValue("z"), r.PathValue("x"), r.PathValue("y"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid tile coordinates")
		return
	}

	tile, err := s.Service.Tile(r.Context(), t, enc)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	etag := contentETag(tile.Data)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", tile.ContentType)
	w.Header().Set("Cache-Control", maxAge(s.HTTP.TileMaxAge))
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Tile-Cache", tile.Source.String())
	_, _ = w.Write(tile.Data)
}

func (s *ServerContext) parseTile(zs, xs, ys string) (geo.TileCoordinate, render.Encoder, bool) {
	enc := s.DefaultEncoder
	if i := strings.LastIndexByte(ys, '.'); i >= 0 {
		var ok bool
		if enc, ok = s.encoders[ys[i+1:]]; !ok {
			return geo.TileCoordinate{}, nil, false
		}
		ys = ys[:i]
	}

	z, errZ := strconv.Atoi(zs)
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if errZ != nil || errX != nil || errY != nil {
		return geo.TileCoordinate{}, nil, false
	}

	t := geo.TileCoordinate{Z: z, X: x, Y: y}
	return t, enc, t.Valid()
}

// HandleSkyQuality serves /api/skyquality?lat=&lon=.
func (s *ServerContext) HandleSkyQuality(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseLatLon(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid lat/lon")
		return
	}

	q, err := s.Service.SkyQuality(lat, lon)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", maxAge(s.HTTP.SkyQualityMaxAge))
	writeJSON(w, http.StatusOK, q)
}

// HandleDarkSpots serves /api/darkspots?lat=&lon=&searchDistance=. With
// format=geojson the spots come back as a FeatureCollection.
func (s *ServerContext) HandleDarkSpots(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseLatLon(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid lat/lon")
		return
	}

	var radius float64
	if v := r.URL.Query().Get("searchDistance"); v != "" {
		var err error
		if radius, err = strconv.ParseFloat(v, 64); err != nil || math.IsNaN(radius) || math.IsInf(radius, 0) {
			writeError(w, http.StatusBadRequest, "Invalid searchDistance")
			return
		}
	}

	res, err := s.Service.FindDarkSpots(lat, lon, radius)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", maxAge(s.HTTP.DarkSpotsMaxAge))
	if r.URL.Query().Get("format") == "geojson" {
		w.Header().Set("Content-Type", "application/geo+json")
		data, err := spotsGeoJSON(res).MarshalJSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		_, _ = w.Write(data)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func spotsGeoJSON(res darkspot.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, spot := range res.Spots {
		f := geojson.NewFeature(orb.Point{spot.Lon, spot.Lat})
		f.ID = i + 1
		f.Properties["level"] = spot.Level
		f.Properties["light_value"] = spot.LightValue
		f.Properties["sqm"] = spot.SQM
		f.Properties["distance_km"] = spot.DistanceKm
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"origin":    res.Origin,
		"radius_km": res.RadiusKm,
	}
	return fc
}

// HandleHealth reports which lazily loaded resources are ready. It never
// triggers loading. A dataset that has not been opened yet is healthy; only
// a failed open attempt makes the service unavailable.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.Service.Readiness()
	status := http.StatusOK
	if ready.Failed() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ready)
}

func parseLatLon(r *http.Request) (lat, lon float64, ok bool) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, geo.ValidLatLon(lat, lon)
}

func (s *ServerContext) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, darkspot.ErrInvalidPoint), errors.Is(err, darkspot.ErrInvalidRadius):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, raster.ErrOutOfBounds):
		writeError(w, http.StatusBadRequest, "Coordinates out of dataset bounds")
	case errors.Is(err, service.ErrNoData):
		writeError(w, http.StatusNotFound, "No data at this coordinate")
	case errors.Is(err, service.ErrNotReady):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Service not ready")
		writeError(w, http.StatusServiceUnavailable, "Service not ready, retry later")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Del("Cache-Control")
	writeJSON(w, status, errorBody{Error: msg})
}

// contentETag derives a strong validator from the response body.
func contentETag(data []byte) string {
	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, int64(len(data)), 16)
	buf = append(buf, '-')
	buf = strconv.AppendUint(buf, xxhash.Sum64(data), 16)
	buf = append(buf, '"')
	return string(buf)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
