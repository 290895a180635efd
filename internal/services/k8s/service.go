package k8s

import (
	"context"
	"fmt"
	"sync"
	"time"

	"runlevelctl/internal/services"
	"runlevelctl/pkg/logging"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Kind is the kind name used in configuration.
const Kind = "namespace"

const (
	// ManagedByLabel marks namespaces that runlevelctl may delete.
	ManagedByLabel = "app.kubernetes.io/managed-by"
	// ManagedByValue is the value of ManagedByLabel on owned namespaces.
	ManagedByValue = "runlevelctl"
	// ComponentLabel records which component created a namespace.
	ComponentLabel = "runlevelctl.io/component"

	requestTimeout = 15 * time.Second
)

// NewK8sClientsetFromConfig is a package-level variable for creating a clientset from rest.Config.
// Exported to allow overriding in tests.
var NewK8sClientsetFromConfig = func(c *rest.Config) (kubernetes.Interface, error) {
	return kubernetes.NewForConfig(c)
}

// K8sNewNonInteractiveDeferredLoadingClientConfig is a package-level variable to allow mocking of clientcmd.NewNonInteractiveDeferredLoadingClientConfig.
var K8sNewNonInteractiveDeferredLoadingClientConfig = func(loader clientcmd.ClientConfigLoader, overrides *clientcmd.ConfigOverrides) clientcmd.ClientConfig {
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loader, overrides)
}

// NamespaceLifecycle ensures a namespace exists while the component is running.
type NamespaceLifecycle struct {
	component   string
	namespace   string
	kubeContext string

	mu     sync.Mutex
	client kubernetes.Interface
}

var _ services.Lifecycle = (*NamespaceLifecycle)(nil)

// New is the services.LifecycleFactory of the namespace kind. The cluster is not
// contacted until the component is started.
func New(spec services.KindSpec) (services.Lifecycle, error) {
	if spec.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	return &NamespaceLifecycle{
		component:   spec.Name,
		namespace:   spec.Namespace,
		kubeContext: spec.KubeContext,
	}, nil
}

// Start creates the namespace unless it already exists.
func (n *NamespaceLifecycle) Start(ctx context.Context) error {
	client, err := n.clientset()
	if err != nil {
		return err
	}

	_, err = client.CoreV1().Namespaces().Get(ctx, n.namespace, metav1.GetOptions{})
	if err == nil {
		logging.Debug(n.subsystem(), "Namespace %s already exists", n.namespace)
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to get namespace %s: %w", n.namespace, err)
	}

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: n.namespace,
			Labels: map[string]string{
				ManagedByLabel: ManagedByValue,
				ComponentLabel: n.component,
			},
		},
	}
	if _, err := client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create namespace %s: %w", n.namespace, err)
	}
	logging.Info(n.subsystem(), "Created namespace %s", n.namespace)
	return nil
}

// Stop deletes the namespace if runlevelctl owns it.
func (n *NamespaceLifecycle) Stop(ctx context.Context) error {
	client, err := n.clientset()
	if err != nil {
		return err
	}

	ns, err := client.CoreV1().Namespaces().Get(ctx, n.namespace, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get namespace %s: %w", n.namespace, err)
	}
	if ns.Labels[ManagedByLabel] != ManagedByValue {
		logging.Debug(n.subsystem(), "Leaving namespace %s in place, it is not managed by %s", n.namespace, ManagedByValue)
		return nil
	}

	err = client.CoreV1().Namespaces().Delete(ctx, n.namespace, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete namespace %s: %w", n.namespace, err)
	}
	logging.Info(n.subsystem(), "Deleted namespace %s", n.namespace)
	return nil
}

// clientset builds the client on first use and keeps it for later calls.
func (n *NamespaceLifecycle) clientset() (kubernetes.Interface, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.client != nil {
		return n.client, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	configOverrides := &clientcmd.ConfigOverrides{CurrentContext: n.kubeContext}
	kubeConfig := K8sNewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get REST config for context %q: %w", n.kubeContext, err)
	}
	restConfig.Timeout = requestTimeout

	client, err := NewK8sClientsetFromConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset for context %q: %w", n.kubeContext, err)
	}
	n.client = client
	return client, nil
}

func (n *NamespaceLifecycle) subsystem() string {
	return "Namespace-" + n.component
}
