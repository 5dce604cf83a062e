package generators

import (
	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// -----------------------------------------------------------------------------
// Public Functions - corev1.Pod Helpers
// -----------------------------------------------------------------------------

// NewPodForCommand generates a throwaway pod which runs a single command to
// completion and is never restarted. The command is provided as an argv list
// together with its environment, there is no shell in between.
func NewPodForCommand(namePrefix, image string, argv []string, env []corev1.EnvVar) *corev1.Pod {
	id := uuid.NewString()
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name: namePrefix + "-" + id[:8],
			Labels: map[string]string{
				"app":  namePrefix,
				"task": id,
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{{
				Name:    namePrefix,
				Image:   image,
				Command: argv,
				Env:     env,
			}},
		},
	}
}
