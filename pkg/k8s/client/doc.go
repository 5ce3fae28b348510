// Package client provides the shared Kubernetes client used by cnsgov.
//
// The daemon and CLI only talk to the API server when publishing governor
// status into a ConfigMap (see the serializer package). The client is built
// once and cached:
//
//	clientset, config, err := client.GetKubeClient()
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//
// Configuration is discovered in this order: an explicit kubeconfig path,
// the KUBECONFIG environment variable, ~/.kube/config, and finally the
// in-cluster service account. Use GetKubeClientWithConfig for an explicit
// path; it bypasses the cache.
//
// Tests substitute k8s.io/client-go/kubernetes/fake through the Interface
// alias.
package client
