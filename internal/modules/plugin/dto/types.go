package dto

type PluginInfo struct {
	Name         string
	Version      string
	Enabled      bool
	Binary       string
	Capabilities []string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type ParameterInfo struct {
	Label              string
	Choices            []string
	Default            string
	DestructiveChoices []string
}

type ActionInfo struct {
	PluginName  string
	ID          string
	Title       string
	Category    string
	Description string
	Argv        []string
	Dir         string
	Env         map[string]string
	Requires    []string
	Background  bool
	Destructive bool
	Parameter   *ParameterInfo
}
