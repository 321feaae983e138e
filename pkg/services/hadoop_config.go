package services

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
)

const (
	// NameNodePort is the port of fs.defaultFS on the master
	NameNodePort = 9000

	coreSite    = "core-site.xml"
	hdfsSite    = "hdfs-site.xml"
	yarnSite    = "yarn-site.xml"
	mapredSite  = "mapred-site.xml"
	mastersFile = "masters"
	slavesFile  = "slaves"

	xmlPreamble = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<?xml-stylesheet type="text/xsl" href="configuration.xsl"?>` + "\n"
)

// HadoopLayout is what the generated configuration depends on
type HadoopLayout struct {
	MasterName  string
	MasterIP    string
	Slaves      []string
	Replication int
}

type hadoopProperty struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type hadoopConfiguration struct {
	XMLName    xml.Name         `xml:"configuration"`
	Properties []hadoopProperty `xml:"property"`
}

func renderConfiguration(properties ...hadoopProperty) (string, error) {
	out, err := xml.MarshalIndent(hadoopConfiguration{Properties: properties}, "", "  ")
	if err != nil {
		return "", err
	}
	return xmlPreamble + string(out) + "\n", nil
}

// GenerateServiceProperties renders the configuration files a node with the
// given role reads, keyed by file name inside the configuration directory
func GenerateServiceProperties(role clustermanager.Role, layout HadoopLayout) (map[string]string, error) {
	if layout.MasterIP == "" || layout.MasterName == "" {
		return nil, fmt.Errorf("hadoop master is not resolved")
	}

	files := map[string]string{}
	var err error

	files[coreSite], err = renderConfiguration(
		hadoopProperty{"fs.defaultFS", fmt.Sprintf("hdfs://%s:%d", layout.MasterIP, NameNodePort)},
	)
	if err != nil {
		return nil, err
	}
	files[hdfsSite], err = renderConfiguration(
		hadoopProperty{"dfs.replication", strconv.Itoa(layout.Replication)},
	)
	if err != nil {
		return nil, err
	}
	files[yarnSite], err = renderConfiguration(
		hadoopProperty{"yarn.resourcemanager.hostname", layout.MasterName},
		hadoopProperty{"yarn.nodemanager.aux-services", "mapreduce_shuffle"},
		hadoopProperty{"yarn.nodemanager.aux-services.mapreduce_shuffle.class", "org.apache.hadoop.mapred.ShuffleHandler"},
	)
	if err != nil {
		return nil, err
	}
	files[mapredSite], err = renderConfiguration(
		hadoopProperty{"mapreduce.framework.name", "yarn"},
	)
	if err != nil {
		return nil, err
	}

	if role == clustermanager.RoleMasters {
		files[mastersFile] = layout.MasterName + "\n"
		files[slavesFile] = strings.Join(layout.Slaves, "\n") + "\n"
	}

	return files, nil
}
