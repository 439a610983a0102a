// Package tor keeps the local Tor daemon installed and running, and gives the
// rest of torserve a way to reach the network through it.
//
// The Orchestrator performs the single install/start pass run at startup:
// probe for the daemon, install it through the platform handler when absent,
// restart the service, and optionally verify the SOCKS5 port with a protocol
// handshake. Client routes HTTP through that SOCKS5 port, EmbeddedTor launches
// a private daemon via tornago instead of using the system service, and the
// onion helpers validate v3 hidden service hostnames before anything is dialed.
package tor
