package services

import "github.com/alessio/shellescape"

// JDKPackage is the JDK both services run on
const JDKPackage = "openjdk-7-jdk"

// JavaHome is where JDKPackage lands on Ubuntu
const JavaHome = "/usr/lib/jvm/java-7-openjdk-amd64"

func quote(value string) string {
	return shellescape.Quote(value)
}

func homeDir(user string) string {
	if user == "root" {
		return "/root"
	}
	return "/home/" + user
}
