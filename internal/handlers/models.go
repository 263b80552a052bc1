package handlers

import "github.com/benmeehan/trailprint/pkg/location"

// LocationReport is the body of POST /location/. All flags default to false.
type LocationReport struct {
	Event          location.Event `json:"event"`
	PublishTraccar bool           `json:"publishTraccar"`
	PrintMap       bool           `json:"printMap"`
	ReturnPDF      bool           `json:"returnPDF"`
}

// nmeaQuery carries the report flags for POST /location/nmea, where the body is the log itself.
type nmeaQuery struct {
	DeviceID       string `form:"device_id" binding:"required"`
	PublishTraccar bool   `form:"publishTraccar"`
	PrintMap       bool   `form:"printMap"`
	ReturnPDF      bool   `form:"returnPDF"`
}
