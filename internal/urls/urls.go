package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://muurk.github.io/visorctl/

// GettingStarted is the setup guide: installing the agent, connecting a
// headset over USB, and accepting the authorization prompt.
const GettingStarted = "https://muurk.github.io/visorctl/getting-started/"

// AgentSetup covers installing and running the privileged agent,
// including the channel endpoint configuration.
const AgentSetup = "https://muurk.github.io/visorctl/agent-setup/"

// WirelessBridge is the guide for enabling the wireless bridge and
// troubleshooting mDNS discovery on segmented networks.
const WirelessBridge = "https://muurk.github.io/visorctl/wireless-bridge/"

// CastingSetup is the guide for the casting install and launch flow.
const CastingSetup = "https://muurk.github.io/visorctl/casting/"

// TroubleshootingGuide provides solutions to common issues encountered
// when working with headsets and the agent channel.
const TroubleshootingGuide = "https://muurk.github.io/visorctl/troubleshooting/"
