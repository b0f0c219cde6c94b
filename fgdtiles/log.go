package fgdtiles

import "github.com/sirupsen/logrus"

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for skipped features and documents.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}
