// Package k8s provides the "namespace" component kind for runlevelctl.
//
// A namespace component makes sure a Kubernetes namespace exists while its run
// level is up. On activation the namespace is created if it is missing and
// labelled as managed by runlevelctl. On release it is deleted again, but only if
// it carries that label: namespaces that existed before are never removed.
//
// # Cluster Access
//
// Clients are built from the default kubeconfig loading rules, optionally pinned
// to a kube context. NewK8sClientsetFromConfig and
// K8sNewNonInteractiveDeferredLoadingClientConfig are package variables so tests
// can substitute a fake clientset.
package k8s
