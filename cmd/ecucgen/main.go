package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/autosar-community/ecucgen/internal/logger"
	"github.com/autosar-community/ecucgen/internal/manifest"
	"github.com/autosar-community/ecucgen/internal/schema"
	"github.com/autosar-community/ecucgen/internal/session"
	"github.com/autosar-community/ecucgen/internal/validator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if len(os.Args) < 2 {
		logger.Println("Usage: ecucgen <command> [arguments]")
		logger.Println("Commands: generate, check, summary, init")
		logger.Println("  generate -c <manifest>")
		logger.Println("  generate [-o output_file] [-p project] [-e ecu_instance] [-r release] <input_files...>")
		logger.Println("  check <input_files...>")
		logger.Println("  summary <input_files...>")
		logger.Println("  init <project_name>")
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "generate":
		runGenerate(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "summary":
		runSummary(os.Args[2:])
	case "init":
		runInit(os.Args[2:])
	default:
		logger.Printf("Unknown command: %s", command)
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	if len(args) < 1 {
		logger.Println("Usage: ecucgen generate -c <manifest>")
		logger.Println("       ecucgen generate [-o output_file] [-p project] [-e ecu_instance] [-r release] <input_files...>")
		os.Exit(1)
	}

	var manifestPath, outputPath, projectName, ecuInstance, release string
	var inputFiles []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-c", "-o", "-p", "-e", "-r":
			if i+1 >= len(args) {
				logger.Printf("Error: %s requires a value", args[i])
				os.Exit(1)
			}
			value := args[i+1]
			switch args[i] {
			case "-c":
				manifestPath = value
			case "-o":
				outputPath = value
			case "-p":
				projectName = value
			case "-e":
				ecuInstance = value
			case "-r":
				release = value
			}
			i++
		default:
			inputFiles = append(inputFiles, args[i])
		}
	}

	var m *manifest.Manifest
	if manifestPath != "" {
		loaded, err := manifest.Load(manifestPath)
		if err != nil {
			logger.Printf("Error loading manifest %s: %v", manifestPath, err)
			os.Exit(1)
		}
		m = loaded
	} else {
		if len(inputFiles) < 1 {
			logger.Println("Usage: ecucgen generate [-o output_file] [-p project] [-e ecu_instance] [-r release] <input_files...>")
			os.Exit(1)
		}
		if projectName == "" {
			projectName = "EcucProject"
		}
		if ecuInstance == "" {
			ecuInstance = projectName + "Instance"
		}
		m = &manifest.Manifest{
			Project: manifest.Project{
				Name:           projectName,
				EcuInstance:    ecuInstance,
				AutosarVersion: release,
			},
			Output: manifest.Output{Path: outputPath},
		}
		for _, path := range inputFiles {
			m.Inputs = append(m.Inputs, manifest.Input{Path: path})
		}
	}

	if err := logger.Configure(m.Logging.Level, m.Logging.Format); err != nil {
		logger.Printf("Error configuring logging: %v", err)
		os.Exit(1)
	}

	s := session.New(m.Version())
	if m.Output.Schema != "" {
		overlay, err := schema.LoadSchema(m.Output.Schema)
		if err != nil {
			logger.Printf("Error loading schema %s: %v", m.Output.Schema, err)
			os.Exit(1)
		}
		s.MergeSchema(overlay)
	}

	for _, input := range m.Inputs {
		if err := s.Load(input.Path, input.Name); err != nil {
			logger.Printf("Error loading %s: %v", input.Path, err)
			os.Exit(1)
		}
	}

	if _, err := s.Validate(); err != nil {
		os.Exit(1)
	}

	if _, err := s.GenerateProject(m.Project.Name, m.Project.EcuInstance, m.Project.Modules); err != nil {
		logger.Printf("Generation failed: %v", err)
		os.Exit(1)
	}

	output := m.OutputPath()
	if err := s.WriteProject(m.Project.Name, output); err != nil {
		logger.Printf("Generation failed: %v", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runCheck(args []string) {
	if len(args) < 1 {
		logger.Println("Usage: ecucgen check <input_files...>")
		os.Exit(1)
	}

	s := session.New("")
	for _, file := range args {
		if err := s.Load(file, ""); err != nil {
			logger.Printf("Error loading %s: %v", file, err)
			continue
		}
	}

	v := validator.NewValidator()
	for _, db := range s.CANNetworks() {
		v.CheckCANDatabase(db)
	}
	for _, network := range s.LINNetworks() {
		v.CheckLINNetwork(network)
	}

	for _, diag := range v.Diagnostics {
		level := "ERROR"
		if diag.Level == validator.LevelWarning {
			level = "WARNING"
		}
		logger.Printf("%s: %s: %s", diag.Network, level, diag.Message)
	}

	if len(v.Diagnostics) > 0 {
		logger.Printf("Found %d issues.", len(v.Diagnostics))
	} else {
		logger.Println("No issues found.")
	}

	if v.Err() != nil {
		os.Exit(1)
	}
}

func runSummary(args []string) {
	if len(args) < 1 {
		logger.Println("Usage: ecucgen summary <input_files...>")
		os.Exit(1)
	}

	s := session.New("")
	for _, file := range args {
		if err := s.Load(file, ""); err != nil {
			logger.Printf("Error loading %s: %v", file, err)
			os.Exit(1)
		}
	}

	data, err := json.MarshalIndent(s.Summary(), "", "  ")
	if err != nil {
		logger.Fatalf("Error rendering summary: %v", err)
	}
	fmt.Println(string(data))
}

const exampleDBC = `VERSION ""

NS_ :
    NS_DESC_
    CM_
    BA_DEF_
    BA_
    VAL_
    CAT_DEF_
    CAT_
    FILTER
    BA_DEF_DEF_
    EV_DATA_
    ENVVAR_DATA_
    SGTYPE_
    SGTYPE_VAL_
    BA_DEF_SGTYPE_
    BA_SGTYPE_
    SIG_TYPE_REF_
    VAL_TABLE_
    SIG_GROUP_
    SIG_VALTYPE_
    SIGTYPE_VALTYPE_
    BO_TX_BU_
    BA_DEF_REL_
    BA_REL_
    BA_DEF_DEF_REL_
    BU_SG_REL_
    BU_EV_REL_
    BU_BO_REL_
    SG_MUL_VAL_

BS_:

BU_: ExampleEcu

BO_ 512 Example_01: 8 ExampleEcu
 SG_ ExampleSignal : 0|16@1+ (1,0) [0|65535] ""  Vector__XXX
`

func runInit(args []string) {
	if len(args) < 1 {
		logger.Println("Usage: ecucgen init <project_name>")
		os.Exit(1)
	}

	projectName := args[0]
	files := map[string]string{
		"ecucgen.toml": manifest.Starter(projectName),
		"example.dbc":  exampleDBC,
	}

	for path, content := range files {
		if _, err := os.Stat(path); err == nil {
			logger.Fatalf("Error: %s already exists", path)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			logger.Fatalf("Error creating file %s: %v", path, err)
		}
		logger.Printf("Created %s", path)
	}

	logger.Printf("Project '%s' initialized successfully.", projectName)
}
