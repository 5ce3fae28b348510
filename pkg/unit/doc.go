// Package unit defines the collaborator contracts the governors drive:
// unit topology, online/offline switching, idle/wall counters, frequency
// readers and cappers, and temperature sensors.
//
// Nothing here touches the host. Linux implementations live in pkg/sysfs;
// tests supply in-memory fakes.
package unit
