package cmd

import (
	"github.com/sirupsen/logrus"
)

// FatalOnError is an helper function to transform error to fatal
func FatalOnError(err error) {
	if err != nil {
		if AppConf.Log != nil {
			AppConf.Log.Fatal(err)
		}
		logrus.Fatal(err)
	}
}
