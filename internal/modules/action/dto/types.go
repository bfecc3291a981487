package dto

type ActionInfo struct {
	Key         string
	Label       string
	Category    string
	Description string
	Source      string
	Destructive bool
	Background  bool
	Options     []OptionInfo
	Parameter   *ParameterInfo
	Requires    []string
}

type OptionInfo struct {
	Label   string
	Path    string
	Exists  bool
	Command string
}

type ParameterInfo struct {
	Label              string
	Choices            []string
	Default            string
	DestructiveChoices []string
}

type ResolveInput struct {
	Key    string
	Option string
	Param  string
}

type ResolvedCommand struct {
	Key         string
	Label       string
	Category    string
	Option      string
	Param       string
	Argv        []string
	Dir         string
	Env         map[string]string
	Destructive bool
	Background  bool
	Check       bool
}

type DispatchInput struct {
	Key        string
	Option     string
	Param      string
	Confirmed  bool
	Background bool
}

type DispatchResult struct {
	Command    ResolvedCommand
	HandleID   string
	Background bool
	ExitCode   int
}
