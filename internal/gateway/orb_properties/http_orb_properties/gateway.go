package http_orb_properties

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties/http_orb_properties/dto"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/rs/zerolog"
)

var _ orb_properties.Gateway = &httpOrbProperties{}

const requestTimeout = 2 * time.Second

// Resolves attributes from a local device metadata service.
type httpOrbProperties struct {
	cl     *resty.Client
	logger zerolog.Logger
}

func New(baseURL string, logger zerolog.Logger) *httpOrbProperties {
	return &httpOrbProperties{
		logger: logger,
		cl: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetRetryCount(0),
	}
}

func (gw *httpOrbProperties) Lookup(ctx context.Context, attr model.Attribute) (string, error) {
	gw.logger.Debug().Str("attr", string(attr)).Msg("looking up property")

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("attr", string(attr)).
		Get("/properties/{attr}")
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("got non-ok response (%s): %s", resp.Status(), resp.String())
	}

	dtoAttr := dto.Attribute{}
	if err := json.Unmarshal(resp.Body(), &dtoAttr); err != nil {
		return "", fmt.Errorf("unmarshaling json: %w", err)
	}

	return dtoAttr.Value, nil
}
