package http

import (
	"errors"

	"hotfire/internal/exporter"
	"hotfire/internal/plot"
	"hotfire/internal/services"

	apierrors "hotfire/internal/errors"
)

// toAPIError maps service sentinels onto API errors. Analysis and engine
// errors pass through; the error handler knows how to render them.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return apierrors.ErrSessionNotFound.WithDetails(err.Error())
	case errors.Is(err, services.ErrSessionLimit):
		return apierrors.ErrSessionLimit
	case errors.Is(err, services.ErrUnsupportedFormat):
		return apierrors.ErrUnsupportedFormat.WithDetails(err.Error())
	case errors.Is(err, services.ErrPayloadTooLarge):
		return apierrors.ErrPayloadTooLarge.WithDetails(err.Error())
	case errors.Is(err, services.ErrUnreadableData):
		return apierrors.NewParsingError("data file could not be parsed", err)
	case errors.Is(err, services.ErrRendererUnavailable), errors.Is(err, services.ErrServiceClosed):
		return apierrors.ErrUnavailable.WithDetails(err.Error())
	case errors.Is(err, exporter.ErrNotComputed):
		return apierrors.ErrNotComputed.WithDetails(err.Error())
	case errors.Is(err, plot.ErrNoData):
		return apierrors.ErrNothingToPlot.WithDetails(err.Error())
	}
	var render *services.RenderError
	if errors.As(err, &render) {
		return apierrors.NewRenderError("Failed to render "+render.Output, render.Err).
			WithContext("output", render.Output)
	}
	return err
}
