// internal/zookeeper/lock.go
package zookeeper

import (
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const lockRoot = "/promohub/locks"

// Conn 是对 zk 连接的薄封装，统一会话超时并集中建连逻辑。
type Conn struct {
	*zk.Conn
}

// Connect 建立 ZooKeeper 会话。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "zookeeper: connect")
	}
	return &Conn{Conn: conn}, nil
}

// LeaderLock 基于临时顺序节点的互斥锁。
// sync-worker 用它保证同一时刻只有一个实例在写用户读模型。
type LeaderLock struct {
	conn     *Conn
	path     string
	lockNode string
}

// NewLeaderLock 为某个资源创建锁实例，并保证锁路径存在。
func NewLeaderLock(conn *Conn, resourceID string) (*LeaderLock, error) {
	if err := ensurePath(conn, lockRoot); err != nil {
		return nil, err
	}
	path := lockRoot + "/" + resourceID
	if err := ensurePath(conn, path); err != nil {
		return nil, err
	}
	return &LeaderLock{conn: conn, path: path}, nil
}

func ensurePath(conn *Conn, path string) error {
	// 逐级创建，父节点可能已经存在
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := ""
	for _, p := range parts {
		cur += "/" + p
		_, err := conn.Create(cur, []byte(""), 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return errors.Wrapf(err, "zookeeper: create %s", cur)
		}
	}
	return nil
}

// Acquire 阻塞直到成为锁路径下序号最小的节点。
// timeout 限制单次等待前驱节点释放的时长，防止死等。
func (l *LeaderLock) Acquire(timeout time.Duration) error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return errors.Wrap(err, "zookeeper: create sequential node")
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return errors.Wrap(err, "zookeeper: list children")
		}
		sort.Strings(children)

		myNode := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNode == children[0] {
			return nil
		}

		// 监听自己前面的那个节点，它消失后重新竞争
		prev := -1
		for i, child := range children {
			if child == myNode {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return errors.New("zookeeper: own lock node missing from children")
		}

		_, _, eventChan, err := l.conn.ExistsW(l.path + "/" + children[prev])
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			return errors.Wrap(err, "zookeeper: watch previous node")
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(timeout):
			return errors.New("zookeeper: timeout waiting for lock")
		}
	}
}

// Release 删除自己的锁节点。会话断开时临时节点也会自动清除。
func (l *LeaderLock) Release() error {
	if l.lockNode == "" {
		return nil
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return errors.Wrap(err, "zookeeper: delete lock node")
	}
	l.lockNode = ""
	return nil
}
