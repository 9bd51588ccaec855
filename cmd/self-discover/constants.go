package selfdiscover

const (
	applicationName  = "self-discover"
	rootCommandShort = "Stream LLM completions and run the SELF-DISCOVER reasoning pipeline"

	defaultConfigPath = ""
	configFlagName    = "config"
	configFlagUsage   = "Path to config.yaml (default: $SELF_DISCOVER_CONFIG, then ./config.yaml, then ~/.self-discover/config.yaml, then built-in)"
	logLevelFlagName  = "log-level"
	logLevelFlagUsage = "Override common.logging.level (debug, info, warn, error)"

	modelFlagName     = "model"
	modelFlagUsage    = "Model name or identifier from models[] (default: the default model)"
	systemFlagName    = "system"
	systemFlagUsage   = "System prompt (default: chat.system_prompt)"
	promptFlagName    = "prompt"
	promptFlagUsage   = "User prompt (default: chat.user_prompt)"
	tuiFlagName       = "tui"
	tuiFlagUsage      = "Render the stages in a full-screen view"
	outputFlagName    = "output"
	outputFlagUsage   = "Write the run transcript as Markdown to this path"
	timeoutFlagName   = "timeout"
	timeoutFlagUsage  = "Per-stage timeout (e.g., 45s; 0 = use common.defaults.timeout_seconds)"
	addressFlagName   = "address"
	addressFlagUsage  = "Listen address (default: server.address)"
	noSpinnerFlagName = "no-spinner"
	noSpinnerUsage    = "Do not show a spinner while waiting for the first token"

	chatCommandUse       = "chat [PROMPT]"
	chatCommandShort     = "Stream one chat completion"
	discoverCommandUse   = "discover TASK"
	discoverCommandShort = "Run Select, Adapt, Structure and Execute on a task"
	searchCommandUse     = "search QUERY"
	searchCommandShort   = "Answer a question with the moderated web-search agent"
	serveCommandUse      = "serve"
	serveCommandShort    = "Serve the chat, discover and search flows over HTTP"
	modelsCommandUse     = "models"
	modelsCommandShort   = "List models from config.yaml"
	modulesCommandUse    = "modules"
	modulesCommandShort  = "List the reasoning module catalog"

	chatLabel           = "Answer"
	waitingMessage      = "Waiting for the model..."
	checkingMessage     = "Checking your query..."
	acceptedMessage     = "Query accepted"
	checkFailedMessage  = "Query check failed"
	completedFormat     = "Completed in %.2f seconds.\n"
	runCompletedFormat  = "Run %s completed in %.2f seconds.\n"
	transcriptFormat    = "Transcript written to %s\n"
	rejectedFormat      = "Your query was flagged (%s). Please try another one.\n"
	answerMarkdown      = "### Qn: %s\n\nAns: %s\n"
	exhaustedNote       = "The agent ran out of iterations; this is a best-effort answer.\n"
	defaultMarker       = "default"
	dashPlaceholder     = "-"
	modelListingFormat  = "%s\t(%s, temperature=%s, max_tokens=%s%s)\n"
	moduleListingFormat = "%2d. %s\n"
	tuiTitleFormat      = "self-discover · %s"

	configurationLoaderInitializationErrorFormat = "initialize configuration loader: %w"
	configurationSourceResolutionErrorFormat     = "resolve configuration source: %w"
	rootConfigurationLoadErrorFormat             = "load root configuration %s: %w"
	environmentOverrideErrorFormat               = "apply environment overrides: %w"
	missingAPIKeyErrorFormat                     = "missing API key: set %s"
	missingTavilyKeyErrorFormat                  = "missing search API key: set %s"
	loggerBuildErrorFormat                       = "build logger: %w"
	emptyPromptErrorMessage                      = "prompt is empty: pass it as an argument, with --prompt, or set chat.user_prompt"
	emptyTaskErrorMessage                        = "task is empty"
	emptyQueryErrorMessage                       = "query is empty"
)
