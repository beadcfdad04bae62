package domain

// DataSetReader loads every data set listed in a data set configuration.
type DataSetReader interface {
	ReadDataSets(config *DataSetsConfig, registry *ClassRegistry) ([]*DataSet, error)
}

// ConfigReader reads the YAML experiment documents.
type ConfigReader interface {
	ReadDataSetsConfig(path string) (*DataSetsConfig, error)
	ReadClassifierConfig(path string) (*ClassifierConfig, error)
}

// ResultWriter persists what the sink collects. Implementations must be
// closed on every exit path so no partial file stays unflushed.
type ResultWriter interface {
	WriteResult(msg *ResultMessage) error
	Close() error
}
