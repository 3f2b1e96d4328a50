package types

// Help links attached to errors for user remediation.
const (
	DefaultHelpLink                      = "https://aka.ms/teamsfx-envchecker-help"
	V3DefaultHelpLink                    = "https://aka.ms/teamsfx-troubleshoot-v3"
	NodeNotFoundHelpLink                 = DefaultHelpLink + "#nodenotfound"
	NodeNotSupportedForAzureHelpLink     = DefaultHelpLink + "#nodenotsupportedazure-hosting"
	NodeNotSupportedForFunctionsHelpLink = DefaultHelpLink + "#nodenotsupportedazure-hosting"
	NodeNotSupportedForSPFxHelpLink      = DefaultHelpLink + "#nodenotsupportedspfx-hosting"
	NodeInstallationLink                 = "https://nodejs.org/about/releases"
	DotnetExplanationHelpLink            = DefaultHelpLink + "#overall"
	DotnetFailToInstallHelpLink          = DefaultHelpLink + "#failtoinstalldotnet"
	FunctionDepsVersionsLink             = "https://aka.ms/functions-node-versions"
	NgrokInstallationHelpLink            = DefaultHelpLink + "#failtoinstallngrok"
	VxTestAppHelpLink                    = "https://aka.ms/teamsfx-video-app-test"
)
