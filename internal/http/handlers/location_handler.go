// Location HTTP handlers.
//
//   - GET /locations                   (continents)
//   - GET /locations/{id}/children     (one level down, generated on first use)
//   - GET /virtual-locations           (deterministic window of generated places)
//   - GET /virtual-locations/verify    (does an id belong to a path/index)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/generator"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/utils"
)

const defaultVirtualLimit = 50

// LocationsResponse wraps a level of the location tree.
type LocationsResponse struct {
	ParentID  string                `json:"parent_id,omitempty"`
	Locations []domain.LocationNode `json:"locations"`
}

// VirtualLocationsResponse wraps a window of virtual locations.
type VirtualLocationsResponse struct {
	Path      string                   `json:"path"`
	Offset    int                      `json:"offset"`
	Limit     int                      `json:"limit"`
	Locations []domain.VirtualLocation `json:"locations"`
}

// VerifyResponse reports whether a virtual-location id is current.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// ListRootLocations godoc
// @ID          listRootLocations
// @Summary     Root locations
// @Tags        Locations
// @Produce     json
// @Success     200  {object}  handlers.LocationsResponse
// @Router      /locations [get]
func (h *Handlers) ListRootLocations(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	ok(c, http.StatusOK, LocationsResponse{Locations: h.Locations.Roots()})
}

// ListChildLocations godoc
// @ID          listChildLocations
// @Summary     Children of a location
// @Tags        Locations
// @Produce     json
// @Description Ids below the continent level contain "/" and must be percent-encoded.
// @Param       id  path  string  true  "Location ID"  example(europe)
// @Success     200  {object}  handlers.LocationsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Terminal location"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown location"
// @Router      /locations/{id}/children [get]
func (h *Handlers) ListChildLocations(c *gin.Context) {
	id := c.Param("id")
	children, err := h.Locations.Children(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LocationsResponse{ParentID: id, Locations: children})
}

// ListVirtualLocations godoc
// @ID          listVirtualLocations
// @Summary     Virtual locations
// @Description Returns items [offset, offset+limit) under path. Identical arguments always return identical items.
// @Tags        Locations
// @Produce     json
// @Param       path    query  string  false  "Path key"  example(earth/europe)
// @Param       offset  query  int     false  "First index"  minimum(0) default(0)
// @Param       limit   query  int     false  "Window size"  minimum(0) maximum(1000) default(50)
// @Success     200  {object}  handlers.VirtualLocationsResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /virtual-locations [get]
func (h *Handlers) ListVirtualLocations(c *gin.Context) {
	path := c.Query("path")
	offset, okOffset := intQuery(c, "offset", 0)
	limit, okLimit := intQuery(c, "limit", defaultVirtualLimit)
	if !okOffset || !okLimit {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "offset and limit must be integers")
		return
	}
	items, err := generator.ListVirtualLocations(path, offset, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	ok(c, http.StatusOK, VirtualLocationsResponse{Path: path, Offset: offset, Limit: limit, Locations: items})
}

// VerifyVirtualLocation godoc
// @ID          verifyVirtualLocation
// @Summary     Verify a virtual-location id
// @Tags        Locations
// @Produce     json
// @Param       id     query  string  true  "Virtual location ID"
// @Param       path   query  string  false "Path key"
// @Param       index  query  int     true  "Item index"  minimum(0)
// @Success     200  {object}  handlers.VerifyResponse
// @Router      /virtual-locations/verify [get]
func (h *Handlers) VerifyVirtualLocation(c *gin.Context) {
	index := utils.AtoiDefault(c.Query("index"), -1)
	ok(c, http.StatusOK, VerifyResponse{Valid: generator.Verify(c.Query("id"), c.Query("path"), index)})
}

// intQuery parses an optional integer query value. The second result is
// false when the value is present but not an integer.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
